package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/litebridge/internal/blocksource"
	"github.com/mrz1836/litebridge/internal/config"
	"github.com/mrz1836/litebridge/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var versionServer string

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print build information. With --server, also query the block server and
check that its version is supported.

Example:
  litebridge version
  litebridge version --server lwd.example.com -o json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().StringVar(&versionServer, "server", "", "block server to check")
}

// VersionResponse is the JSON shape of the version command.
type VersionResponse struct {
	version.Info

	Server *ServerVersion `json:"server,omitempty"`
}

// ServerVersion describes a queried block server.
type ServerVersion struct {
	URI        string `json:"uri"`
	Vendor     string `json:"vendor"`
	Version    string `json:"version"`
	Chain      string `json:"chain"`
	Height     uint64 `json:"height"`
	Compatible bool   `json:"compatible"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	resp := VersionResponse{Info: version.Get()}

	var checkErr error
	if versionServer != "" {
		uri := config.ConstructServerURI(versionServer)
		info, err := blocksource.NewClient(uri, sourceOptions(cfg)).Info(cmd.Context())
		if err != nil {
			return err
		}
		checkErr = version.CheckServer(info.Version)
		resp.Server = &ServerVersion{
			URI:        uri,
			Vendor:     info.Vendor,
			Version:    info.Version,
			Chain:      info.ChainName,
			Height:     info.BlockHeight,
			Compatible: checkErr == nil,
		}
	}

	if formatter.IsJSON() {
		if err := formatter.Print(resp); err != nil {
			return err
		}
		return checkErr
	}

	w := cmd.OutOrStdout()
	outln(w, resp.Info.String())
	if s := resp.Server; s != nil {
		out(w, "server %s: %s %s (%s, height %d)\n", s.URI, s.Vendor, s.Version, s.Chain, s.Height)
	}
	return checkErr
}
