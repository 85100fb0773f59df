package lightclient

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

const (
	// WalletFileName is the wallet file inside a chain's data directory.
	WalletFileName = "litewallet.yaml"

	// walletFileVersion is bumped on incompatible layout changes.
	walletFileVersion = 1

	walletFilePermissions = 0o600
	walletDirPermissions  = 0o700
)

// walletFile is the on-disk wallet layout.
type walletFile struct {
	Version       int        `yaml:"version"`
	Chain         string     `yaml:"chain"`
	Seed          string     `yaml:"seed,omitempty"`
	EncryptedSeed string     `yaml:"encrypted_seed,omitempty"`
	Birthday      uint64     `yaml:"birthday"`
	SyncedHeight  uint64     `yaml:"synced_height"`
	Addresses     []Address  `yaml:"addresses"`
	Notes         []Note     `yaml:"notes,omitempty"`
	Transactions  []TxRecord `yaml:"transactions,omitempty"`
}

func walletExistsAt(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// encodeWallet snapshots w for writing. An encrypted wallet never writes its
// plaintext seed.
func encodeWallet(w *walletState, chain Chain) ([]byte, error) {
	f := walletFile{
		Version:      walletFileVersion,
		Chain:        chain.String(),
		Birthday:     w.birthday,
		SyncedHeight: w.syncedHeight,
		Addresses:    w.addresses,
		Notes:        w.notes,
		Transactions: w.txs,
	}
	if w.encrypted() {
		f.EncryptedSeed = base64.StdEncoding.EncodeToString(w.encryptedSeed)
	} else {
		f.Seed = string(w.seed)
	}
	return yaml.Marshal(&f)
}

func readWallet(path string, chain Chain) (*walletState, error) {
	// #nosec G304 -- path is derived from the configured data directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, bridgeerr.WithDetails(bridgeerr.ErrWalletNotFound, map[string]string{"path": path})
		}
		return nil, bridgeerr.Classify(bridgeerr.ErrStorage, fmt.Errorf("reading wallet: %w", err))
	}

	var f walletFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, bridgeerr.Classify(bridgeerr.ErrStorage, fmt.Errorf("parsing wallet: %w", err))
	}
	if f.Version != walletFileVersion {
		return nil, bridgeerr.WithDetails(bridgeerr.ErrStorage, map[string]string{
			"version": fmt.Sprintf("%d", f.Version),
		})
	}
	if f.Chain != "" && f.Chain != chain.String() {
		return nil, bridgeerr.WithDetails(bridgeerr.ErrStorage, map[string]string{
			"wallet_chain": f.Chain,
			"chain":        chain.String(),
		})
	}

	w := &walletState{
		birthday:     f.Birthday,
		syncedHeight: f.SyncedHeight,
		addresses:    f.Addresses,
		notes:        f.Notes,
		txs:          f.Transactions,
		pending:      make(map[string]uint64),
	}
	if f.EncryptedSeed != "" {
		if w.encryptedSeed, err = base64.StdEncoding.DecodeString(f.EncryptedSeed); err != nil {
			return nil, bridgeerr.Classify(bridgeerr.ErrStorage, fmt.Errorf("decoding encrypted seed: %w", err))
		}
	} else if f.Seed != "" {
		w.seed = []byte(f.Seed)
	}
	return w, nil
}

// writeAtomic writes data to a temp file beside path, fsyncs, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, walletDirPermissions); err != nil {
		return fmt.Errorf("creating wallet directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(walletFilePermissions); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
