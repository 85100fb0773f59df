//go:build windows

package walletcrypto

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// LockMemory attempts to keep b out of the page file.
// Returns true if the region was locked.
func LockMemory(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return windows.VirtualLock(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b))) == nil
}

// UnlockMemory releases a region locked by LockMemory.
func UnlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = windows.VirtualUnlock(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)))
}
