package lightclient

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"

	//nolint:gosec,staticcheck // G507,SA1019: RIPEMD160 is required for transparent address hashing
	"golang.org/x/crypto/ripemd160"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

// seedEntropyBits yields a 24-word phrase.
const seedEntropyBits = 256

// maxSuggestionDistance bounds how far a typo may be from a suggested word.
const maxSuggestionDistance = 2

//nolint:gochecknoglobals // Lazily built lookup over the static BIP39 word list
var (
	wordSetOnce sync.Once
	wordSet     map[string]struct{}
)

func bip39Words() map[string]struct{} {
	wordSetOnce.Do(func() {
		list := bip39.GetWordList()
		wordSet = make(map[string]struct{}, len(list))
		for _, w := range list {
			wordSet[w] = struct{}{}
		}
	})
	return wordSet
}

// GenerateMnemonic creates a new 24-word BIP39 phrase.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(seedEntropyBits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase and collapses whitespace.
func NormalizeMnemonic(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// ValidateMnemonic checks word count, word membership and checksum. Unknown
// words carry a nearest-word suggestion.
func ValidateMnemonic(phrase string) error {
	words := strings.Fields(NormalizeMnemonic(phrase))
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return bridgeerr.WithDetails(bridgeerr.ErrInvalidMnemonic, map[string]string{
			"words": fmt.Sprintf("%d", len(words)),
		})
	}

	known := bip39Words()
	for i, w := range words {
		if _, ok := known[w]; ok {
			continue
		}
		err := bridgeerr.WithDetails(bridgeerr.ErrInvalidMnemonic, map[string]string{
			"position": fmt.Sprintf("%d", i+1),
			"word":     w,
		})
		if s := suggestWord(w); s != "" {
			err = bridgeerr.WithSuggestion(err, fmt.Sprintf("did you mean '%s'?", s))
		}
		return err
	}

	if _, err := bip39.MnemonicToByteArray(strings.Join(words, " ")); err != nil {
		return bridgeerr.WithDetails(bridgeerr.ErrInvalidMnemonic, map[string]string{"checksum": "mismatch"})
	}
	return nil
}

// suggestWord returns the closest BIP39 word within maxSuggestionDistance.
func suggestWord(input string) string {
	return closest(input, bip39.GetWordList(), maxSuggestionDistance)
}

// closest returns the candidate nearest to input, or "" if none is within limit.
func closest(input string, candidates []string, limit int) string {
	best := ""
	bestDist := limit + 1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(input, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// seedFromMnemonic derives the 64-byte BIP39 seed.
func seedFromMnemonic(phrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(phrase), "")
	if err != nil {
		return nil, bridgeerr.ErrInvalidMnemonic
	}
	return seed, nil
}

// deriveAddress derives the transparent address at m/44'/coin'/0'/0/index.
func deriveAddress(phrase string, chain Chain, index uint32) (string, error) {
	seed, err := seedFromMnemonic(phrase)
	if err != nil {
		return "", err
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return "", fmt.Errorf("creating master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + chain.CoinType(),
		bip32.FirstHardenedChild,
		0,
		index,
	}
	for _, child := range path {
		if key, err = key.NewChildKey(child); err != nil {
			return "", fmt.Errorf("deriving child %d: %w", child, err)
		}
	}

	pub := key.PublicKey().Key
	return base58CheckEncode(chain.addressPrefix(), hash160(pub)), nil
}

// ValidateAddress checks a transparent address for chain.
func ValidateAddress(chain Chain, address string) error {
	payload, err := base58CheckDecode(address)
	if err != nil {
		return bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"address": address})
	}
	prefix := chain.addressPrefix()
	if len(payload) != len(prefix)+ripemd160.Size || payload[0] != prefix[0] || payload[1] != prefix[1] {
		return bridgeerr.WithDetails(bridgeerr.ErrInvalidInput, map[string]string{"address": address, "chain": chain.String()})
	}
	return nil
}

func hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	_, _ = h.Write(sum[:])
	return h.Sum(nil)
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}
