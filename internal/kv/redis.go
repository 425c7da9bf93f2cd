package kv

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configure NewRedisStore. Timeout applies to dialing, reads
// and writes; zero keeps the go-redis defaults.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// RedisStore maps HashStore onto Redis hashes (HSET, HGET, HGETALL, HDEL).
// A multi-field HSET is a single command and therefore atomic.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings. The client is closed again if the ping
// fails.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	s := NewRedisStoreFromClient(client)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisStoreFromClient wraps an existing client; the store takes
// ownership and closes it in Close.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	values := make([]any, 0, 2*len(fields))
	for f, v := range fields {
		values = append(values, f, v)
	}

	if err := s.client.HSet(ctx, key, values...).Err(); err != nil {
		return unavailable("redis hset", err)
	}
	return nil
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorNotFound
		}
		return "", unavailable("redis hget", err)
	}
	return v, nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, unavailable("redis hgetall", err)
	}
	return m, nil
}

func (s *RedisStore) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := s.client.HDel(ctx, key, fields...).Result()
	if err != nil {
		return 0, unavailable("redis hdel", err)
	}
	return n, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("redis ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
