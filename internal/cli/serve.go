package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/host"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var drainTimeout time.Duration

// serveCmd runs the host protocol on stdin and stdout.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the host protocol on stdin/stdout",
	Long: `Read one JSON request per line from stdin and write one JSON response per
line to stdout until stdin closes or the process is interrupted.

Requests look like:
  {"id":1,"method":"initialize_existing","params":{"server_uri":"lwd.example.com"}}
  {"id":2,"method":"execute","params":{"command":"balance"}}

On shutdown, background tasks are given --drain-timeout to finish before
the session is released.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().DurationVar(&drainTimeout, "drain-timeout", 30*time.Second, "time allowed for background tasks on shutdown")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Zap()
	b := newBridge(cfg)
	server := host.NewServer(b, log.Named("host"))

	log.Info("serving host protocol", zap.String("home", cfg.DataDir()), zap.String("chain", cfg.Chain))

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		log.Info("interrupted, shutting down")
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	// Serve may still be inside a request when interrupted; let it finish
	// before the session is released.
	if shutErr := server.Shutdown(drainCtx); shutErr != nil {
		log.Warn("request still running at shutdown", zap.Error(shutErr))
	}
	if closeErr := b.Close(drainCtx); closeErr != nil {
		log.Warn("background tasks did not drain", zap.Error(closeErr))
	}

	return err
}
