package lightclient

import (
	"path/filepath"
	"strings"
)

// Chain identifies the network a wallet belongs to.
type Chain string

// Supported chains.
const (
	Mainnet Chain = "main"
	Testnet Chain = "test"
	Regtest Chain = "regtest"
)

// ParseChain resolves a host-supplied chain name. Unknown or empty names
// resolve to fallback.
func ParseChain(name string, fallback Chain) Chain {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "main", "mainnet":
		return Mainnet
	case "test", "testnet":
		return Testnet
	case "regtest":
		return Regtest
	default:
		return fallback
	}
}

// String returns the chain name.
func (c Chain) String() string {
	return string(c)
}

// CoinType returns the BIP44 coin type for the chain.
func (c Chain) CoinType() uint32 {
	if c == Mainnet {
		return 133
	}
	return 1
}

// addressPrefix returns the two version bytes of transparent P2PKH addresses.
func (c Chain) addressPrefix() []byte {
	if c == Mainnet {
		return []byte{0x1C, 0xB8}
	}
	return []byte{0x1D, 0x25}
}

// DataDir returns where the chain's wallet lives under home. Mainnet wallets
// sit directly in home.
func (c Chain) DataDir(home string) string {
	switch c {
	case Testnet:
		return filepath.Join(home, "testnet")
	case Regtest:
		return filepath.Join(home, "regtest")
	default:
		return home
	}
}
