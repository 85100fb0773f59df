package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/litebridge/internal/bridge"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	walletServer    string
	restoreBirthday uint64
	restoreForce    bool
)

// createCmd creates a new wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet",
	Long: `Create a new wallet whose birthday sits just below the server's current
height, then print its seed phrase.

Write the seed phrase down. It is the only way to recover the wallet.

Example:
  litebridge create --server lwd.example.com`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

// restoreCmd restores a wallet from a seed phrase.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a wallet from a seed phrase",
	Long: `Restore a wallet from a BIP39 seed phrase read from stdin. Scanning starts
at --birthday; run "litebridge exec sync" afterwards.

An existing wallet is only replaced with --force.

Example:
  litebridge restore --birthday 2000000
  echo "abandon ... about" | litebridge restore --force`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(restoreCmd)

	for _, c := range []*cobra.Command{createCmd, restoreCmd} {
		c.Flags().StringVar(&walletServer, "server", "", "block server (default: configured server)")
	}
	restoreCmd.Flags().Uint64Var(&restoreBirthday, "birthday", 0, "block height to start scanning from")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "replace an existing wallet")
}

// CreateResponse is the JSON shape of the create command.
type CreateResponse struct {
	Seed string `json:"seed"`
}

func runCreate(cmd *cobra.Command, _ []string) error {
	b := newBridge(cfg)
	defer func() { _ = b.Close(cmd.Context()) }()

	r := b.InitializeNew(cmd.Context(), serverFlag(walletServer))
	if r.Failed() {
		return r.Err
	}

	if formatter.IsJSON() {
		return formatter.Print(CreateResponse{Seed: r.Value})
	}

	w := cmd.OutOrStdout()
	outln(w, "Wallet created. Seed phrase:")
	outln(w)
	out(w, "  %s\n", r.Value)
	outln(w)
	outln(w, "Store it offline. Anyone holding it controls the funds.")
	return nil
}

func runRestore(cmd *cobra.Command, _ []string) error {
	phrase, err := promptPhraseFn()
	if err != nil {
		return err
	}
	if phrase == "" {
		return bridgeerr.WithSuggestion(bridgeerr.ErrInvalidMnemonic, "no seed phrase given")
	}

	b := newBridge(cfg)
	defer func() { _ = b.Close(cmd.Context()) }()

	r := b.InitializeFromPhrase(cmd.Context(), serverFlag(walletServer), phrase, restoreBirthday, restoreForce)
	return printResult(r)
}

// printResult prints a lifecycle result or returns its error.
func printResult(r bridge.Result) error {
	if r.Failed() {
		return r.Err
	}
	return formatter.PrintRaw(r.Value)
}
