package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	argon2idPrefix = "$argon2id$"
	saltSize       = 16
	keySize        = 32
)

// Upper bounds for parameters read back from stored hashes. IDKey cannot be
// cancelled, so a stored value outside them is treated as malformed.
const (
	maxArgon2Memory  = 1 << 20 // KiB
	maxArgon2Time    = 16
	maxArgon2Threads = 16
	maxArgon2Salt    = 64
	maxArgon2Key     = 64
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultArgon2Params are one pass over 64 MiB with four lanes.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4}

// Argon2idHasher encodes hashes in the PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// with salt and key in unpadded standard base64.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher validates p and returns a hasher using it.
func NewArgon2idHasher(p Argon2Params) (*Argon2idHasher, error) {
	if p.Time == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("argon2id: time and threads must be positive")
	}
	if p.Memory < 8*uint32(p.Threads) {
		return nil, fmt.Errorf("argon2id: memory must be at least %d KiB", 8*uint32(p.Threads))
	}
	if !withinLimits(p) {
		return nil, fmt.Errorf("argon2id: parameters exceed m=%d,t=%d,p=%d", maxArgon2Memory, maxArgon2Time, maxArgon2Threads)
	}
	return &Argon2idHasher{params: p}, nil
}

func (h *Argon2idHasher) Hash(secret []byte) (string, error) {
	salt := common.GenerateRandByteArray(saltSize)
	key := argon2.IDKey(secret, salt, h.params.Time, h.params.Memory, h.params.Threads, keySize)
	defer common.WipeByteArray(key)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the salt and parameters stored in encoded
// and compares in constant time.
func (h *Argon2idHasher) Verify(secret []byte, encoded string) (bool, error) {
	p, salt, want, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey(secret, salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func decodeArgon2id(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, ErrMalformedHash
	}
	if p.Time == 0 || p.Threads == 0 || p.Memory < 8*uint32(p.Threads) || !withinLimits(p) {
		return p, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 || len(salt) > maxArgon2Salt {
		return p, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxArgon2Key {
		return p, nil, nil, ErrMalformedHash
	}

	return p, salt, key, nil
}

func withinLimits(p Argon2Params) bool {
	return p.Memory <= maxArgon2Memory && p.Time <= maxArgon2Time && p.Threads <= maxArgon2Threads
}
