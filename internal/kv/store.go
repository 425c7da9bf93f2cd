// Package kv provides the key-value backing store shared by the credential
// vault and the extension registry.
//
// The model is Redis-shaped: a key names a hash map of string fields. Every
// implementation writes all fields of one HSet call atomically, so a reader
// never observes half of a write. Absent keys and fields surface as
// common.ErrorNotFound; every other failure wraps common.ErrBackendUnavailable.
package kv

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/config"
)

// HashStore is a persistent map of key -> (field -> value).
type HashStore interface {
	// HSet upserts fields under key. An empty map is a no-op.
	HSet(ctx context.Context, key string, fields map[string]string) error

	// HGet returns one field, or common.ErrorNotFound.
	HGet(ctx context.Context, key, field string) (string, error)

	// HGetAll returns every field of key; an unknown key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// HDel removes fields from key and reports how many existed.
	HDel(ctx context.Context, key string, fields ...string) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// Open builds the store selected by cfg.Backend and checks it is reachable.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config) (HashStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.OperationTimeout,
		})
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseDSN)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", common.ErrInvalidInput, cfg.Backend)
	}
}

// unavailable tags err as a backend failure while keeping the driver error
// reachable through errors.Is/As.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrBackendUnavailable, err)
}
