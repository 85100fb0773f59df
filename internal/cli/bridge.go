package cli

import (
	"github.com/mrz1836/litebridge/internal/blocksource"
	"github.com/mrz1836/litebridge/internal/bridge"
	"github.com/mrz1836/litebridge/internal/config"
	"github.com/mrz1836/litebridge/internal/lightclient"
	"github.com/mrz1836/litebridge/internal/metrics"
)

// sourceOptions maps network settings onto block server client options.
func sourceOptions(c *config.Config) *blocksource.Options {
	opts := &blocksource.Options{
		Timeout:       c.Timeout(),
		RatePerSecond: c.Network.RatePerSecond,
		Burst:         c.Network.Burst,
	}
	if c.Network.RetryAttempts > 0 {
		retry := blocksource.DefaultRetryConfig()
		retry.MaxAttempts = c.Network.RetryAttempts
		opts.Retry = &retry
	}
	return opts
}

// newBridge builds a bridge backed by the light client for the configured
// chain and data directory.
func newBridge(c *config.Config) *bridge.Bridge {
	log := logger.Zap()
	srcOpts := sourceOptions(c)

	backend := lightclient.NewBackend(lightclient.BackendOptions{
		Home:            c.DataDir(),
		Chain:           lightclient.ParseChain(c.Chain, lightclient.Mainnet),
		BatchSize:       c.Sync.BatchSize,
		MonitorInterval: c.MonitorInterval(),
		NewSource: func(serverURI string) lightclient.BlockSource {
			return blocksource.NewClient(serverURI, srcOpts)
		},
		Logger: log.Named("lightclient"),
	})

	return bridge.New(bridge.Options{
		Backend: bridge.NewLightClientBackend(backend),
		Runner: bridge.RunnerOptions{
			Workers:   c.Runner.Workers,
			QueueSize: c.Runner.QueueSize,
			History:   c.Runner.History,
		},
		Logger:  log.Named("bridge"),
		Metrics: metrics.New(),
	})
}

// serverFlag returns the server to use: the flag value when set, else the
// configured server.
func serverFlag(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Server
}
