package cryptox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxSecret = 72

// maxBcryptCost bounds the work a stored hash can demand; each step doubles it.
const maxBcryptCost = 15

// BcryptHasher uses golang.org/x/crypto/bcrypt. This is the format the
// original Python tool (bcrypt.hashpw) wrote, "$2b$12$...".
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > maxBcryptCost {
		return nil, fmt.Errorf("bcrypt: cost %d out of range [%d, %d]", cost, bcrypt.MinCost, maxBcryptCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash rejects secrets longer than 72 bytes instead of silently truncating
// them; long recovery phrases need argon2id.
func (h *BcryptHasher) Hash(secret []byte) (string, error) {
	if len(secret) > bcryptMaxSecret {
		return "", fmt.Errorf("%w: bcrypt secrets are limited to %d bytes", common.ErrInvalidInput, bcryptMaxSecret)
	}
	b, err := bcrypt.GenerateFromPassword(secret, h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(secret []byte, encoded string) (bool, error) {
	if !isBcrypt(encoded) {
		return false, ErrMalformedHash
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil || cost > maxBcryptCost {
		return false, ErrMalformedHash
	}
	err = bcrypt.CompareHashAndPassword([]byte(encoded), secret)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

func isBcrypt(encoded string) bool {
	for _, p := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}
