// Package keys derives account data from raw private keys.
package keys

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AddressFromPrivateKey returns the EIP-55 checksummed Ethereum address of a
// hex-encoded secp256k1 private key. A 0x prefix is accepted.
func AddressFromPrivateKey(hexKey string) (string, error) {
	hexKey = strings.TrimSpace(hexKey)
	hexKey = strings.TrimPrefix(strings.TrimPrefix(hexKey, "0x"), "0X")

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return "", fmt.Errorf("%w: private key: %w", common.ErrInvalidInput, err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
