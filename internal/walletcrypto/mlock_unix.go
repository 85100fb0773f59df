//go:build !windows

package walletcrypto

import (
	"golang.org/x/sys/unix"
)

// LockMemory attempts to keep b out of swap.
// Returns true if the region was locked.
func LockMemory(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return unix.Mlock(b) == nil
}

// UnlockMemory releases a region locked by LockMemory.
func UnlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
