// Package phrase handles wallet recovery phrases.
package phrase

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/tyler-smith/go-bip39"
)

// Normalize trims s and collapses runs of whitespace between words to one
// space, so a phrase hashes the same however it was pasted.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsBIP39 reports whether s is a BIP-39 mnemonic with a valid checksum.
func IsBIP39(s string) bool {
	return bip39.IsMnemonicValid(Normalize(s))
}

// Generate returns a new English BIP-39 mnemonic of 12 or 24 words.
func Generate(words int) (string, error) {
	var bits int
	switch words {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return "", fmt.Errorf("%w: %d words, want 12 or 24", common.ErrInvalidInput, words)
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(entropy)

	return bip39.NewMnemonic(entropy)
}
