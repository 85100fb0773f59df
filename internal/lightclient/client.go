// Package lightclient is the wallet client behind the bridge: it owns the
// seed, derives transparent addresses, scans compact blocks from the block
// server, watches the mempool and executes textual wallet commands.
//
// A Client guards its own state; any number of goroutines may call Execute
// concurrently. Sync and rescan runs are serialized.
package lightclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/walletcrypto"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// Client is a live wallet session.
type Client struct {
	cfg    *Config
	source BlockSource
	logger *zap.Logger

	mu     sync.RWMutex
	wallet *walletState

	saveMu sync.Mutex
	syncMu sync.Mutex
	sendMu sync.Mutex

	statusMu sync.Mutex
	status   SyncStatus

	interruptAfterBatch atomic.Bool

	ctx         context.Context
	cancel      context.CancelFunc
	monitorOnce sync.Once
	monitoring  atomic.Bool
	deleted     atomic.Bool
	wg          sync.WaitGroup
	closed      atomic.Bool
}

// NewClient creates a wallet with a fresh 24-word seed whose scan starts at
// birthday. It refuses to replace an existing wallet file.
func NewClient(cfg *Config, birthday uint64) (*Client, error) {
	if walletExistsAt(cfg.WalletPath()) {
		return nil, bridgeerr.WithSuggestion(
			bridgeerr.WithDetails(bridgeerr.ErrWalletExists, map[string]string{"path": cfg.WalletPath()}),
			"load it with initialize_existing or delete it first",
		)
	}

	phrase, err := GenerateMnemonic()
	if err != nil {
		return nil, fmt.Errorf("generating seed: %w", err)
	}

	return createClient(cfg, phrase, birthday)
}

// NewClientFromPhrase restores a wallet from phrase, scanning from birthday.
// An existing wallet file is only replaced when overwrite is set.
func NewClientFromPhrase(cfg *Config, phrase string, birthday uint64, overwrite bool) (*Client, error) {
	if !overwrite && walletExistsAt(cfg.WalletPath()) {
		return nil, bridgeerr.WithSuggestion(
			bridgeerr.WithDetails(bridgeerr.ErrWalletExists, map[string]string{"path": cfg.WalletPath()}),
			"pass overwrite to replace it",
		)
	}

	if err := ValidateMnemonic(phrase); err != nil {
		return nil, err
	}

	return createClient(cfg, NormalizeMnemonic(phrase), birthday)
}

// ReadClient loads the wallet persisted under cfg.
func ReadClient(cfg *Config) (*Client, error) {
	w, err := readWallet(cfg.WalletPath(), cfg.Chain)
	if err != nil {
		return nil, err
	}
	c := newClient(cfg, w)
	cfg.owners.claim(cfg.WalletPath(), c)
	c.logger.Debug("wallet loaded",
		zap.Uint64("synced_height", w.syncedHeight),
		zap.Bool("encrypted", w.encrypted()))
	return c, nil
}

func createClient(cfg *Config, phrase string, birthday uint64) (*Client, error) {
	w := newWalletState(birthday)
	w.seed = []byte(phrase)

	first, err := deriveAddress(phrase, cfg.Chain, 0)
	if err != nil {
		return nil, err
	}
	w.addresses = []Address{{Address: first, Index: 0}}

	c := newClient(cfg, w)
	if err := c.persist(true); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.logger.Info("wallet created", zap.Uint64("birthday", birthday))
	return c, nil
}

func newClient(cfg *Config, w *walletState) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:    cfg,
		source: cfg.source,
		logger: logger,
		wallet: w,
		ctx:    ctx,
		cancel: cancel,
	}
	walletcrypto.LockMemory(w.seed)
	return c
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *Config {
	return c.cfg
}

// SeedPhrase returns the wallet's mnemonic.
func (c *Client) SeedPhrase() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.wallet.locked() {
		return "", bridgeerr.ErrWalletLocked
	}
	return string(c.wallet.seed), nil
}

// Birthday returns the height the wallet's scan starts from.
func (c *Client) Birthday() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wallet.birthday
}

// Close stops the mempool monitor and wipes the in-memory seed. In-flight
// commands observe a canceled context.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Blocks a concurrent start and disables later ones.
	c.monitorOnce.Do(func() {})
	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	walletcrypto.UnlockMemory(c.wallet.seed)
	walletcrypto.Zero(c.wallet.seed)
	c.wallet.seed = nil

	c.logger.Debug("client closed")
	return nil
}

// save persists the wallet unless it was deleted or a newer client for the
// same file has taken it over. Saves are serialized.
func (c *Client) save() error {
	return c.persist(false)
}

// persist writes the wallet file. With claim set the client takes the file
// over from any earlier client.
func (c *Client) persist(claim bool) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	if c.deleted.Load() {
		return nil
	}

	c.mu.RLock()
	data, err := encodeWallet(c.wallet, c.cfg.Chain)
	c.mu.RUnlock()
	if err != nil {
		return bridgeerr.Classify(bridgeerr.ErrStorage, fmt.Errorf("encoding wallet: %w", err))
	}

	path := c.cfg.WalletPath()
	written, err := c.cfg.owners.write(path, c, claim, func() error {
		return writeAtomic(path, data)
	})
	if err != nil {
		return bridgeerr.Classify(bridgeerr.ErrStorage, err)
	}
	if !written {
		c.logger.Debug("wallet file taken over by a newer session, not saved", zap.String("path", path))
	}
	return nil
}

// deleteWallet removes the wallet file. The session keeps working from memory
// but never writes the file again.
func (c *Client) deleteWallet() error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.deleted.Store(true)
	path := c.cfg.WalletPath()
	removed, err := c.cfg.owners.write(path, c, false, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	})
	if err != nil {
		return bridgeerr.Classify(bridgeerr.ErrStorage, fmt.Errorf("deleting wallet: %w", err))
	}
	if removed {
		c.logger.Info("wallet deleted", zap.String("path", path))
	}
	return nil
}
