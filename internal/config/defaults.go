package config

// DefaultServerURI is the block server used when none is configured.
const DefaultServerURI = "https://mainnet.lightwalletd.com:9067"

// DefaultServerPort is appended to server addresses that omit a port.
const DefaultServerPort = "9067"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.litebridge",
		Chain:   "main",
		Server:  DefaultServerURI,
		Network: NetworkConfig{
			TimeoutSeconds: 30,
			RatePerSecond:  5,
			Burst:          10,
			RetryAttempts:  4,
		},
		Runner: RunnerConfig{
			Workers:   4,
			QueueSize: 1024,
			History:   100,
		},
		Monitor: MonitorConfig{
			IntervalSeconds: 30,
		},
		Sync: SyncConfig{
			BatchSize: 100,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.litebridge/litebridge.log",
		},
	}
}
