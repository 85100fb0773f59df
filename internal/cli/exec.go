package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/litebridge/internal/bridge"
	"github.com/mrz1836/litebridge/internal/output"
	"github.com/mrz1836/litebridge/internal/walletcrypto"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	execServer string
	execUnlock bool
)

// execCmd runs one command against the existing wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var execCmd = &cobra.Command{
	Use:   "exec <command> [argument]",
	Short: "Run one light client command",
	Long: `Load the existing wallet, run one light client command and print its result.

The optional argument is passed as a single token and is never split; quote
JSON arguments. Background commands (sync, rescan, import) are waited for and
their task outcome is printed.

Example:
  litebridge exec balance
  litebridge exec sync
  litebridge exec --unlock send '[{"address":"t1...","amount":50000}]'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExec,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execServer, "server", "", "block server (default: configured server)")
	execCmd.Flags().BoolVar(&execUnlock, "unlock", false, "prompt for the wallet password before running")
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b := newBridge(cfg)

	result, err := execute(ctx, b, args)

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if closeErr := b.Close(drainCtx); closeErr != nil && err == nil {
		err = fmt.Errorf("waiting for background task: %w", closeErr)
	}
	if err != nil {
		return err
	}

	if bridge.IsFireAndForget(args[0]) {
		return reportTasks(cmd.OutOrStdout(), b.Tasks())
	}
	return formatter.PrintRaw(result.Value)
}

// execute loads the wallet and runs the command, unlocking first when asked.
func execute(ctx context.Context, b *bridge.Bridge, args []string) (bridge.Result, error) {
	if r := b.InitializeExisting(ctx, serverFlag(execServer)); r.Failed() {
		return r, r.Err
	}

	if execUnlock {
		password, err := promptPasswordFn("Wallet password: ")
		if err != nil {
			return bridge.Result{}, err
		}
		r := b.Execute("unlock", string(password))
		walletcrypto.Zero(password)
		if err := resultError(r); err != nil {
			return r, err
		}
	}

	var argText string
	if len(args) == 2 {
		argText = args[1]
	}

	r := b.Execute(args[0], argText)
	return r, resultError(r)
}

// resultError returns the bridge error of r, or the light client's own
// "Error: " reply as a collaborator error.
func resultError(r bridge.Result) error {
	if r.Failed() {
		return r.Err
	}
	if strings.HasPrefix(r.Value, bridge.ErrorPrefix) {
		return bridgeerr.Classify(bridgeerr.ErrCollaborator, errors.New(strings.TrimPrefix(r.Value, bridge.ErrorPrefix)))
	}
	return nil
}

// reportTasks prints finished background tasks and fails if any failed.
func reportTasks(w io.Writer, tasks []bridge.Task) error {
	if formatter.IsJSON() {
		if err := formatter.Print(tasks); err != nil {
			return err
		}
	} else {
		table := output.NewTable("ID", "COMMAND", "STATE", "RESULT")
		for _, t := range tasks {
			table.AddRow(strconv.FormatUint(t.ID, 10), t.Command, string(t.State), t.Result)
		}
		if err := table.Render(w); err != nil {
			return err
		}
	}

	for _, t := range tasks {
		if t.State == bridge.TaskFailed {
			return bridgeerr.Classify(bridgeerr.ErrCollaborator,
				fmt.Errorf("task %d (%s): %s", t.ID, t.Command, strings.TrimPrefix(t.Result, bridge.ErrorPrefix)))
		}
	}
	return nil
}
