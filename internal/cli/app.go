package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/config"
	"github.com/dmitrijs2005/extkeeper/internal/cryptox"
	"github.com/dmitrijs2005/extkeeper/internal/keyring"
	"github.com/dmitrijs2005/extkeeper/internal/kv"
	"github.com/dmitrijs2005/extkeeper/internal/logging"
	"github.com/dmitrijs2005/extkeeper/internal/ratelimit"
	"github.com/dmitrijs2005/extkeeper/internal/registry"
	"github.com/dmitrijs2005/extkeeper/internal/vault"
)

// openStore is a seam for tests.
var openStore = kv.Open

// backendPassword is a seam for tests.
var backendPassword = keyring.BackendPassword

// App owns the hash store and the services built on it for one command.
type App struct {
	config   *config.Config
	logger   logging.Logger
	store    kv.HashStore
	vault    *vault.Service
	registry *registry.Registry
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.UseKeyring {
		if err := applyKeyringPassword(cfg); err != nil {
			return nil, err
		}
	}

	hasher, err := cryptox.NewHasher(cfg.HashAlgorithm, cryptox.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2MemoryKiB,
		Threads: cfg.Argon2Threads,
	}, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}

	octx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	store, err := openStore(octx, cfg)
	if err != nil {
		logger.Error(ctx, "error opening hash store", "backend", cfg.Backend, "error", err)
		return nil, err
	}
	logger.Debug(ctx, "hash store opened", "backend", cfg.Backend)

	var opts []vault.Option
	if cfg.VerifyRate > 0 {
		opts = append(opts, vault.WithLimiter(ratelimit.New(cfg.VerifyRate, cfg.VerifyBurst, 10*time.Minute)))
	}

	return &App{
		config:   cfg,
		logger:   logger,
		store:    store,
		vault:    vault.NewService(store, hasher, logger, opts...),
		registry: registry.New(store, logger),
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

// withTimeout bounds one backend operation.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.OperationTimeout)
}

// applyKeyringPassword fills the backend password from the OS keychain when
// the configuration does not carry one.
func applyKeyringPassword(cfg *config.Config) error {
	switch cfg.Backend {
	case config.BackendRedis:
		if cfg.RedisPassword != "" {
			return nil
		}
	case config.BackendPostgres:
	default:
		return nil
	}

	pw, err := backendPassword(cfg.Backend)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return err
	}

	switch cfg.Backend {
	case config.BackendRedis:
		cfg.RedisPassword = pw
	case config.BackendPostgres:
		dsn, err := withDSNPassword(cfg.DatabaseDSN, pw)
		if err != nil {
			return err
		}
		cfg.DatabaseDSN = dsn
	}
	return nil
}

// withDSNPassword sets the password of a URL-form DSN unless it has one.
func withDSNPassword(dsn, password string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("%w: keyring password needs a URL DSN", common.ErrInvalidInput)
	}
	if u.User == nil {
		return "", fmt.Errorf("%w: DSN has no user", common.ErrInvalidInput)
	}
	if _, set := u.User.Password(); set {
		return dsn, nil
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
