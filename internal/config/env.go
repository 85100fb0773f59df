package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome      = "LITEBRIDGE_HOME"
	EnvChain     = "LITEBRIDGE_CHAIN"
	EnvServer    = "LITEBRIDGE_SERVER"
	EnvLogLevel  = "LITEBRIDGE_LOG_LEVEL"
	EnvWorkers   = "LITEBRIDGE_WORKERS"
	EnvQueueSize = "LITEBRIDGE_QUEUE_SIZE"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvChain); v != "" {
		cfg.Chain = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvServer); v != "" {
		cfg.Server = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if n, ok := positiveInt(os.Getenv(EnvWorkers)); ok {
		cfg.Runner.Workers = n
	}

	if n, ok := positiveInt(os.Getenv(EnvQueueSize)); ok {
		cfg.Runner.QueueSize = n
	}
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
