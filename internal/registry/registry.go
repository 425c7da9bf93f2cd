// Package registry maps friendly extension names ("metamask") to browser
// extension IDs and their chrome-extension:// base URLs.
package registry

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/kv"
	"github.com/dmitrijs2005/extkeeper/internal/logging"
)

const (
	KeyPrefix = "extension:"

	FieldID      = "extension_id"
	FieldBaseURL = "extension_base_url"

	// legacyFieldBaseURL is what older tooling wrote instead of FieldBaseURL.
	legacyFieldBaseURL = "base_url"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Extension is one registered browser extension.
type Extension struct {
	Name    string
	ID      string
	BaseURL string
}

// Registry reads and writes extension records in a hash store.
type Registry struct {
	store  kv.HashStore
	logger logging.Logger
}

func New(store kv.HashStore, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{store: store, logger: logger}
}

// BaseURLFor returns the chrome-extension:// origin of id.
func BaseURLFor(id string) string {
	return "chrome-extension://" + id + "/"
}

// Register records id under name, replacing any earlier registration.
func (r *Registry) Register(ctx context.Context, name, id string) (Extension, error) {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	if name == "" {
		return Extension{}, fmt.Errorf("%w: empty extension name", common.ErrInvalidInput)
	}
	if !idPattern.MatchString(id) {
		return Extension{}, fmt.Errorf("%w: invalid extension id %q", common.ErrInvalidInput, id)
	}

	ext := Extension{Name: name, ID: id, BaseURL: BaseURLFor(id)}
	err := r.store.HSet(ctx, KeyPrefix+name, map[string]string{
		FieldID:      ext.ID,
		FieldBaseURL: ext.BaseURL,
	})
	if err != nil {
		return Extension{}, fmt.Errorf("register extension: %w", err)
	}

	r.logger.Info(ctx, "extension registered", "name", name, "id", id)
	return ext, nil
}

// Lookup returns the extension registered under name, or common.ErrorNotFound.
func (r *Registry) Lookup(ctx context.Context, name string) (Extension, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Extension{}, fmt.Errorf("%w: empty extension name", common.ErrInvalidInput)
	}

	fields, err := r.store.HGetAll(ctx, KeyPrefix+name)
	if err != nil {
		return Extension{}, fmt.Errorf("lookup extension: %w", err)
	}

	id := fields[FieldID]
	if id == "" {
		return Extension{}, common.ErrorNotFound
	}

	base := fields[FieldBaseURL]
	if base == "" {
		base = fields[legacyFieldBaseURL]
	}
	if base == "" {
		base = BaseURLFor(id)
	}
	return Extension{Name: name, ID: id, BaseURL: base}, nil
}

func (r *Registry) ExtensionID(ctx context.Context, name string) (string, error) {
	ext, err := r.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return ext.ID, nil
}

func (r *Registry) BaseURL(ctx context.Context, name string) (string, error) {
	ext, err := r.Lookup(ctx, name)
	if err != nil {
		return "", err
	}
	return ext.BaseURL, nil
}

// PageURL joins page onto the extension's base URL, e.g. "home.html".
func (r *Registry) PageURL(ctx context.Context, name, page string) (string, error) {
	base, err := r.BaseURL(ctx, name)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(page, "/"), nil
}
