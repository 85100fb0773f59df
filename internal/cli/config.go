package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/litebridge/internal/config"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and initialize litebridge configuration.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.litebridge/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  litebridge config init
  litebridge config init --force`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration, including environment overrides.

Example:
  litebridge config show
  litebridge config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return bridgeerr.WithSuggestion(
			bridgeerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - server: Default block server")
	outln(w, "  - chain: main, test or regtest")
	outln(w, "  - runner.workers / runner.queue_size: Background task limits")
	outln(w, "  - logging.level: Log level (off/error/info/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if formatter.IsJSON() {
		return formatter.Print(cfg)
	}
	displayConfigText(cmd.OutOrStdout(), cfg)
	return nil
}

func displayConfigText(w io.Writer, c *config.Config) {
	outln(w, "Configuration:")
	outln(w)
	out(w, "  Home: %s\n", c.Home)
	out(w, "  Chain: %s\n", c.Chain)
	out(w, "  Server: %s\n", c.Server)
	outln(w)
	outln(w, "  Network:")
	out(w, "    timeout_seconds: %d\n", c.Network.TimeoutSeconds)
	out(w, "    rate_per_second: %g\n", c.Network.RatePerSecond)
	out(w, "    burst: %d\n", c.Network.Burst)
	out(w, "    retry_attempts: %d\n", c.Network.RetryAttempts)
	outln(w)
	outln(w, "  Runner:")
	out(w, "    workers: %d\n", c.Runner.Workers)
	out(w, "    queue_size: %d\n", c.Runner.QueueSize)
	out(w, "    history: %d\n", c.Runner.History)
	outln(w)
	out(w, "  Monitor interval: %ds\n", c.Monitor.IntervalSeconds)
	out(w, "  Sync batch size: %d\n", c.Sync.BatchSize)
	outln(w)
	outln(w, "  Logging:")
	out(w, "    level: %s\n", c.Logging.Level)
	out(w, "    file: %s\n", c.Logging.File)
}
