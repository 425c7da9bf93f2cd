package vault

import (
	"fmt"

	"github.com/dmitrijs2005/extkeeper/internal/common"
)

// KeyPrefix namespaces credential records in the hash store.
const KeyPrefix = "credential:"

// legacyKeyPrefix is where older tooling kept credential hashes, next to
// the extension record. It is read by Verify and cleared by Revoke.
const legacyKeyPrefix = "extension:"

// Field names a stored hash inside a credential record.
type Field string

const (
	FieldPassword       Field = "password_hash"
	FieldRecoveryPhrase Field = "recovery_phrase_hash"
)

// Fields lists every credential field in a fixed order.
var Fields = []Field{FieldPassword, FieldRecoveryPhrase}

func (f Field) Valid() bool {
	return f == FieldPassword || f == FieldRecoveryPhrase
}

// Kind returns the secret kind whose hash lives in f.
func (f Field) Kind() Kind {
	switch f {
	case FieldPassword:
		return KindPassword
	case FieldRecoveryPhrase:
		return KindRecoveryPhrase
	}
	return ""
}

// ParseField accepts a field name ("password_hash") or a kind ("password").
func ParseField(s string) (Field, error) {
	switch s {
	case string(FieldPassword), string(KindPassword):
		return FieldPassword, nil
	case string(FieldRecoveryPhrase), string(KindRecoveryPhrase):
		return FieldRecoveryPhrase, nil
	}
	return "", fmt.Errorf("%w: unknown credential field %q", common.ErrInvalidInput, s)
}

// Kind names a secret as returned by Store.
type Kind string

const (
	KindPassword       Kind = "password"
	KindRecoveryPhrase Kind = "recovery_phrase"
)

// Secrets are the plaintext values handed to Store. An empty string means
// the secret is not being set.
type Secrets struct {
	Password       string
	RecoveryPhrase string
}

func (s Secrets) byField() map[Field]string {
	m := make(map[Field]string, 2)
	if s.Password != "" {
		m[FieldPassword] = s.Password
	}
	if s.RecoveryPhrase != "" {
		m[FieldRecoveryPhrase] = s.RecoveryPhrase
	}
	return m
}

// Hashes maps each stored kind to its encoded hash.
type Hashes map[Kind]string

func credentialKey(subject string) string {
	return KeyPrefix + subject
}

func legacyKey(subject string) string {
	return legacyKeyPrefix + subject
}
