package lightclient

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrz1836/litebridge/internal/walletcrypto"
	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

//nolint:gochecknoglobals // Immutable sentinels for encryption state errors
var (
	errAlreadyEncrypted = bridgeerr.New("ALREADY_ENCRYPTED", "wallet is already encrypted")
	errNotEncrypted     = bridgeerr.New("NOT_ENCRYPTED", "wallet is not encrypted")
)

type encryptionStatus struct {
	Encrypted bool `json:"encrypted"`
	Locked    bool `json:"locked"`
}

// Encrypt protects the seed with password and locks the wallet.
func (c *Client) Encrypt(password string) error {
	c.mu.Lock()
	if c.wallet.encrypted() {
		c.mu.Unlock()
		return errAlreadyEncrypted
	}
	ciphertext, err := walletcrypto.Encrypt(c.wallet.seed, password)
	if err != nil {
		c.mu.Unlock()
		return bridgeerr.Wrap(bridgeerr.ErrInvalidInput, "encrypting seed: %v", err)
	}
	c.wallet.encryptedSeed = ciphertext
	c.wipeSeedLocked()
	c.mu.Unlock()

	c.logger.Info("wallet encrypted")
	return c.save()
}

// Decrypt permanently removes encryption.
func (c *Client) Decrypt(password string) error {
	c.mu.Lock()
	if !c.wallet.encrypted() {
		c.mu.Unlock()
		return errNotEncrypted
	}
	seed, err := c.openSeedLocked(password)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.wipeSeedLocked()
	c.wallet.seed = seed
	walletcrypto.LockMemory(seed)
	c.wallet.encryptedSeed = nil
	c.mu.Unlock()

	c.logger.Info("wallet decrypted")
	return c.save()
}

// Unlock decrypts the seed into memory for this session.
func (c *Client) Unlock(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wallet.encrypted() {
		return errNotEncrypted
	}
	if !c.wallet.locked() {
		return nil
	}
	seed, err := c.openSeedLocked(password)
	if err != nil {
		return err
	}
	c.wallet.seed = seed
	walletcrypto.LockMemory(seed)
	c.logger.Debug("wallet unlocked")
	return nil
}

// Lock wipes the decrypted seed of an encrypted wallet from memory.
func (c *Client) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wallet.encrypted() {
		return errNotEncrypted
	}
	c.wipeSeedLocked()
	return nil
}

func (c *Client) openSeedLocked(password string) ([]byte, error) {
	seed, err := walletcrypto.Decrypt(c.wallet.encryptedSeed, password)
	if err != nil {
		c.logger.Debug("seed decryption failed", zap.Error(err))
		return nil, bridgeerr.ErrDecryptionFailed
	}
	return seed, nil
}

func (c *Client) wipeSeedLocked() {
	walletcrypto.UnlockMemory(c.wallet.seed)
	walletcrypto.Zero(c.wallet.seed)
	c.wallet.seed = nil
}

func cmdEncrypt(_ context.Context, c *Client, args []string) (any, error) {
	if err := requireArgs(args, 1, "encrypt <password>"); err != nil {
		return nil, err
	}
	if err := c.Encrypt(args[0]); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdDecrypt(_ context.Context, c *Client, args []string) (any, error) {
	if err := requireArgs(args, 1, "decrypt <password>"); err != nil {
		return nil, err
	}
	if err := c.Decrypt(args[0]); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdUnlock(_ context.Context, c *Client, args []string) (any, error) {
	if err := requireArgs(args, 1, "unlock <password>"); err != nil {
		return nil, err
	}
	if err := c.Unlock(args[0]); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdLock(_ context.Context, c *Client, _ []string) (any, error) {
	if err := c.Lock(); err != nil {
		return nil, err
	}
	return success, nil
}

func cmdEncryptionStatus(_ context.Context, c *Client, _ []string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return encryptionStatus{Encrypted: c.wallet.encrypted(), Locked: c.wallet.locked()}, nil
}
