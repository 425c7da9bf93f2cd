// Package common defines shared sentinel errors and small helpers used across
// extkeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")

	// Service-level errors.
	ErrInvalidInput = errors.New("invalid input")
	ErrRateLimited  = errors.New("too many attempts")
)
