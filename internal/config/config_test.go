package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/litebridge/internal/config"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.Defaults()
	cfg.Server = "https://testnet.example.com:9067"
	cfg.Chain = "test"
	cfg.Runner.Workers = 2

	require.NoError(t, config.Save(cfg, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Server, loaded.Server)
	assert.Equal(t, "test", loaded.Chain)
	assert.Equal(t, 2, loaded.Runner.Workers)
	assert.Equal(t, cfg.Runner.QueueSize, loaded.Runner.QueueSize)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chain: regtest\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "regtest", cfg.Chain)
	assert.Equal(t, config.DefaultServerURI, cfg.Server)
	assert.Equal(t, 100, cfg.Sync.BatchSize)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("runner: [unclosed"), 0o600))
		_, err := config.Load(path)
		require.Error(t, err)
	})
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "main", cfg.Chain)
	assert.Equal(t, 4, cfg.Runner.Workers)
	assert.Equal(t, 1024, cfg.Runner.QueueSize)
	assert.Equal(t, 30, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "wallets"), config.ExpandHome("~/wallets"))
	assert.Equal(t, "/var/lib/wallets", config.ExpandHome("/var/lib/wallets"))
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(config.EnvHome, "/tmp/bridge")
	t.Setenv(config.EnvChain, " TEST ")
	t.Setenv(config.EnvServer, "lwd.example.com")
	t.Setenv(config.EnvLogLevel, "DEBUG")
	t.Setenv(config.EnvWorkers, "8")
	t.Setenv(config.EnvQueueSize, "-3")

	cfg := config.Defaults()
	config.ApplyEnvironment(cfg)

	assert.Equal(t, "/tmp/bridge", cfg.Home)
	assert.Equal(t, "test", cfg.Chain)
	assert.Equal(t, "lwd.example.com", cfg.Server)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Runner.Workers)
	assert.Equal(t, 1024, cfg.Runner.QueueSize, "non-positive values are ignored")
}

func TestConstructServerURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty selects default", "", config.DefaultServerURI},
		{"whitespace selects default", "   ", config.DefaultServerURI},
		{"full uri untouched", "https://lwd.example.com:443", "https://lwd.example.com:443"},
		{"missing scheme", "lwd.example.com:9067", "http://lwd.example.com:9067"},
		{"missing port", "https://lwd.example.com", "https://lwd.example.com:9067"},
		{"missing both", "127.0.0.1", "http://127.0.0.1:9067"},
		{"keeps path", "https://lwd.example.com:8080/api/", "https://lwd.example.com:8080/api"},
		{"ipv6 without port", "http://[::1]", "http://[::1]:9067"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ConstructServerURI(tt.input))
		})
	}
}
