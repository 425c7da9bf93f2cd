// Package keyring keeps backend passwords in the operating system keychain so
// they do not have to live in config files or the environment.
package keyring

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	zkr "github.com/zalando/go-keyring"
)

// Service is the keychain service name entries are filed under.
const Service = "extkeeper"

func user(backend string) string {
	return "backend:" + backend
}

// BackendPassword returns the stored password for backend, or
// common.ErrorNotFound.
func BackendPassword(backend string) (string, error) {
	pw, err := zkr.Get(Service, user(backend))
	if err != nil {
		if errors.Is(err, zkr.ErrNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return pw, nil
}

func SetBackendPassword(backend, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	if err := zkr.Set(Service, user(backend), password); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// DeleteBackendPassword removes the entry; a missing entry is not an error.
func DeleteBackendPassword(backend string) error {
	if err := zkr.Delete(Service, user(backend)); err != nil && !errors.Is(err, zkr.ErrNotFound) {
		return fmt.Errorf("keyring delete: %w", err)
	}
	return nil
}
