package cli

import (
	"github.com/spf13/cobra"
)

// existsCmd reports whether a wallet file exists.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var existsCmd = &cobra.Command{
	Use:   "exists [chain]",
	Short: "Report whether a wallet exists",
	Long: `Report whether a wallet file exists for the given chain (main, test or
regtest). Without an argument the configured chain is checked.

Example:
  litebridge exists
  litebridge exists test -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExists,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(existsCmd)
}

// ExistsResponse is the JSON shape of the exists command.
type ExistsResponse struct {
	Chain  string `json:"chain"`
	Exists bool   `json:"exists"`
}

func runExists(cmd *cobra.Command, args []string) error {
	chain := cfg.Chain
	if len(args) == 1 {
		chain = args[0]
	}

	b := newBridge(cfg)
	defer func() { _ = b.Close(cmd.Context()) }()
	exists := b.WalletExists(chain)

	if formatter.IsJSON() {
		return formatter.Print(ExistsResponse{Chain: chain, Exists: exists})
	}
	outln(cmd.OutOrStdout(), exists)
	return nil
}
