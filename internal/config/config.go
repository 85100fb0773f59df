// Package config provides configuration management for the bridge.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Chain   string        `yaml:"chain"`
	Server  string        `yaml:"server"`
	Network NetworkConfig `yaml:"network"`
	Runner  RunnerConfig  `yaml:"runner"`
	Monitor MonitorConfig `yaml:"monitor"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`
}

// NetworkConfig defines block server transport settings.
type NetworkConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
	RetryAttempts  int     `yaml:"retry_attempts"`
}

// RunnerConfig bounds the background task pool.
type RunnerConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	History   int `yaml:"history"`
}

// MonitorConfig defines mempool monitor settings.
type MonitorConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// SyncConfig defines chain scan settings.
type SyncConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the config file path inside home.
func Path(home string) string {
	return filepath.Join(ExpandHome(home), "config.yaml")
}

// DataDir returns the expanded home directory where wallets live.
func (c *Config) DataDir() string {
	return ExpandHome(c.Home)
}

// Timeout returns the per-request block server timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// MonitorInterval returns the mempool polling interval.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}

// DefaultHome returns the default bridge home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".litebridge"
	}
	return filepath.Join(home, ".litebridge")
}

// ExpandHome resolves a leading "~/" against the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
