package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/litebridge/internal/lightclient"
)

// Client is a live wallet client owned by a session handle.
type Client interface {
	// Execute runs a wallet command and returns its textual result.
	Execute(cmd string, args []string) string
	SeedPhrase() (string, error)
	StartMempoolMonitor()
	Close() error
}

// Config is a collaborator-specific session configuration produced by
// Backend.LoadConfig and consumed by the Backend constructors.
type Config interface {
	WalletPath() string
}

// Backend builds wallet clients. It holds no session state.
type Backend interface {
	WalletExists(chain string) bool
	LoadConfig(ctx context.Context, serverURI string) (Config, uint64, error)
	NewClient(cfg Config, birthday uint64) (Client, error)
	NewClientFromPhrase(cfg Config, phrase string, birthday uint64, overwrite bool) (Client, error)
	ReadClient(cfg Config) (Client, error)
}

var errForeignConfig = errors.New("configuration was not built by this backend")

// LightClientBackend adapts lightclient to Backend.
type LightClientBackend struct {
	backend *lightclient.Backend
}

// NewLightClientBackend wraps b.
func NewLightClientBackend(b *lightclient.Backend) *LightClientBackend {
	return &LightClientBackend{backend: b}
}

// WalletExists reports whether a wallet file exists for chain.
func (l *LightClientBackend) WalletExists(chain string) bool {
	return l.backend.WalletExists(chain)
}

// LoadConfig resolves the configuration for serverURI and the chain height.
func (l *LightClientBackend) LoadConfig(ctx context.Context, serverURI string) (Config, uint64, error) {
	cfg, height, err := l.backend.LoadConfig(ctx, serverURI)
	if err != nil {
		return nil, 0, err
	}
	return cfg, height, nil
}

// NewClient creates a wallet with a fresh seed.
func (l *LightClientBackend) NewClient(cfg Config, birthday uint64) (Client, error) {
	lc, err := native(cfg)
	if err != nil {
		return nil, err
	}
	c, err := lightclient.NewClient(lc, birthday)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientFromPhrase restores a wallet from a seed phrase.
func (l *LightClientBackend) NewClientFromPhrase(cfg Config, phrase string, birthday uint64, overwrite bool) (Client, error) {
	lc, err := native(cfg)
	if err != nil {
		return nil, err
	}
	c, err := lightclient.NewClientFromPhrase(lc, phrase, birthday, overwrite)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReadClient loads the persisted wallet.
func (l *LightClientBackend) ReadClient(cfg Config) (Client, error) {
	lc, err := native(cfg)
	if err != nil {
		return nil, err
	}
	c, err := lightclient.ReadClient(lc)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func native(cfg Config) (*lightclient.Config, error) {
	lc, ok := cfg.(*lightclient.Config)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errForeignConfig, cfg)
	}
	return lc, nil
}
