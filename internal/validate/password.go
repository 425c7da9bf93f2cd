// Package validate holds the input policy applied to secrets typed by a user
// before they are hashed.
package validate

import (
	"crypto/subtle"
	"errors"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is counted in characters, after trimming.
const MinPasswordLength = 8

var (
	ErrPasswordEmpty    = errors.New("password is empty")
	ErrPasswordTooShort = errors.New("password is too short")
)

// Password checks a new unlock password.
func Password(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrPasswordEmpty
	}
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Match compares a password with its confirmation in constant time,
// ignoring surrounding whitespace.
func Match(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(a)), []byte(strings.TrimSpace(b))) == 1
}
