package lightclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/blocksource"
)

const (
	defaultBatchSize       = 100
	defaultMonitorInterval = 30 * time.Second
)

// BlockSource is the block server surface the client depends on.
type BlockSource interface {
	Info(ctx context.Context) (*blocksource.Info, error)
	LatestHeight(ctx context.Context) (uint64, error)
	Blocks(ctx context.Context, start, end uint64) ([]blocksource.Block, error)
	Mempool(ctx context.Context) ([]blocksource.Transaction, error)
	Broadcast(ctx context.Context, tx *blocksource.Transaction) (string, error)
}

// Config is the resolved configuration for one wallet session.
type Config struct {
	Chain           Chain
	ServerURI       string
	DataDir         string
	BatchSize       int
	MonitorInterval time.Duration

	source BlockSource
	logger *zap.Logger
	owners *fileOwners
}

// WalletPath returns the wallet file location.
func (c *Config) WalletPath() string {
	return filepath.Join(c.DataDir, WalletFileName)
}

// BackendOptions configures a Backend.
type BackendOptions struct {
	// Home is the root data directory.
	Home string

	// Chain is used when the host does not name a known chain.
	Chain Chain

	BatchSize       int
	MonitorInterval time.Duration

	// NewSource builds a block server client for a server URI.
	NewSource func(serverURI string) BlockSource

	Logger *zap.Logger
}

// Backend resolves configurations and answers existence queries. Beyond
// which client may write each wallet file it holds no session state.
type Backend struct {
	opts   BackendOptions
	owners *fileOwners
}

// NewBackend creates a backend. Missing options get defaults.
func NewBackend(opts BackendOptions) *Backend {
	if opts.Chain == "" {
		opts.Chain = Mainnet
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = defaultMonitorInterval
	}
	if opts.NewSource == nil {
		opts.NewSource = func(serverURI string) BlockSource {
			return blocksource.NewClient(serverURI, nil)
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Backend{opts: opts, owners: newFileOwners()}
}

// WalletExists reports whether a wallet file exists for the named chain.
// Unknown or empty names fall back to the backend's chain. The name only
// picks the directory to look in: LoadConfig always builds sessions for the
// backend's chain, so a wallet found under another chain is not the one
// initialize_existing would open.
func (b *Backend) WalletExists(chainName string) bool {
	chain := ParseChain(chainName, b.opts.Chain)
	return walletExistsAt(filepath.Join(chain.DataDir(b.opts.Home), WalletFileName))
}

// LoadConfig builds the session configuration for serverURI and fetches the
// current chain height from the server.
func (b *Backend) LoadConfig(ctx context.Context, serverURI string) (*Config, uint64, error) {
	cfg := &Config{
		Chain:           b.opts.Chain,
		ServerURI:       serverURI,
		DataDir:         b.opts.Chain.DataDir(b.opts.Home),
		BatchSize:       b.opts.BatchSize,
		MonitorInterval: b.opts.MonitorInterval,
		source:          b.opts.NewSource(serverURI),
		logger:          b.opts.Logger.With(zap.String("chain", b.opts.Chain.String())),
		owners:          b.owners,
	}

	if err := os.MkdirAll(cfg.DataDir, walletDirPermissions); err != nil {
		return nil, 0, fmt.Errorf("creating data directory: %w", err)
	}

	height, err := cfg.source.LatestHeight(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching latest block height from %s: %w", serverURI, err)
	}

	return cfg, height, nil
}
