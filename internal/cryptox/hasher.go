// Package cryptox implements salted one-way hashing of secrets.
//
// Hashes are self-describing strings: the algorithm, its parameters and the
// random salt are encoded together with the digest, so verification needs
// nothing but the stored string and the candidate secret.
package cryptox

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHash is returned when a stored hash cannot be decoded.
var ErrMalformedHash = errors.New("malformed hash")

// Hasher produces and checks encoded salted hashes.
type Hasher interface {
	// Hash returns the encoding of a freshly salted hash of secret.
	Hash(secret []byte) (string, error)

	// Verify reports whether secret matches encoded. A mismatch is not an
	// error; ErrMalformedHash is returned for encodings it cannot read.
	Verify(secret []byte, encoded string) (bool, error)
}

// Algorithm names accepted by NewHasher.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// MultiHasher hashes with Primary and verifies with whichever known hasher
// matches the encoding prefix. This keeps bcrypt hashes written by older
// tooling verifiable after switching to argon2id, and vice versa.
type MultiHasher struct {
	Primary Hasher
	Argon2  *Argon2idHasher
	Bcrypt  *BcryptHasher
}

// NewHasher builds a MultiHasher whose primary algorithm is algorithm.
func NewHasher(algorithm string, argon Argon2Params, bcryptCost int) (*MultiHasher, error) {
	a, err := NewArgon2idHasher(argon)
	if err != nil {
		return nil, err
	}
	b, err := NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err
	}

	m := &MultiHasher{Argon2: a, Bcrypt: b}
	switch strings.ToLower(algorithm) {
	case "", AlgorithmArgon2id:
		m.Primary = a
	case AlgorithmBcrypt:
		m.Primary = b
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(secret []byte) (string, error) {
	return m.Primary.Hash(secret)
}

func (m *MultiHasher) Verify(secret []byte, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return m.Argon2.Verify(secret, encoded)
	case isBcrypt(encoded):
		return m.Bcrypt.Verify(secret, encoded)
	default:
		return false, ErrMalformedHash
	}
}
