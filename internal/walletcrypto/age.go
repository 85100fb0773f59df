// Package walletcrypto protects wallet secrets at rest and in memory.
// Seeds are encrypted with age scrypt recipients; decrypted secrets are
// locked into RAM where the platform allows it.
package walletcrypto

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"filippo.io/age"
)

// ErrEmptyPassword is returned when a password is required but empty.
var ErrEmptyPassword = errors.New("password is empty")

// defaultWorkFactor matches age's own scrypt default (log2 of N).
const defaultWorkFactor = 18

//nolint:gochecknoglobals // Tunable for tests, read atomically
var workFactor atomic.Int32

// SetScryptWorkFactor overrides the scrypt work factor used for new
// ciphertexts. Tests lower it to keep runs fast; zero restores the default.
func SetScryptWorkFactor(logN int) {
	workFactor.Store(int32(logN)) //nolint:gosec // small bounded value
}

func currentWorkFactor() int {
	if n := workFactor.Load(); n > 0 {
		return int(n)
	}
	return defaultWorkFactor
}

// Encrypt encrypts plaintext using age with a password-based recipient.
func Encrypt(plaintext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}
	recipient.SetWorkFactor(currentWorkFactor())

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Decrypt decrypts ciphertext using age with a password-based identity.
func Decrypt(ciphertext []byte, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}

	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("initializing decryption: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}

	return plaintext, nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
