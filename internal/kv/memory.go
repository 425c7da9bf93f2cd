package kv

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/extkeeper/internal/common"
)

var errStoreClosed = errors.New("store closed")

// MemoryStore keeps hashes in process memory. It is safe for concurrent use
// and behaves like an unreachable backend once closed.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, "hset"); err != nil {
		return err
	}

	h, ok := s.data[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.data[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (s *MemoryStore) HGet(ctx context.Context, key, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx, "hget"); err != nil {
		return "", err
	}

	v, ok := s.data[key][field]
	if !ok {
		return "", common.ErrorNotFound
	}
	return v, nil
}

func (s *MemoryStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx, "hgetall"); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(s.data[key]))
	for f, v := range s.data[key] {
		out[f] = v
	}
	return out, nil
}

func (s *MemoryStore) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx, "hdel"); err != nil {
		return 0, err
	}

	h, ok := s.data[key]
	if !ok {
		return 0, nil
	}

	var n int64
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			n++
		}
	}
	if len(h) == 0 {
		delete(s.data, key)
	}
	return n, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx, "ping")
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// check must be called with s.mu held.
func (s *MemoryStore) check(ctx context.Context, op string) error {
	if s.closed {
		return unavailable(op, errStoreClosed)
	}
	if err := ctx.Err(); err != nil {
		return unavailable(op, err)
	}
	return nil
}
