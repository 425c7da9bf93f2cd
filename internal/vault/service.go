// Package vault stores and checks salted hashes of wallet secrets
// (unlock password, recovery phrase) per named subject.
//
// Plaintext never reaches the store. Verification answers with a boolean:
// a missing hash and a wrong secret look the same to the caller.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/cryptox"
	"github.com/dmitrijs2005/extkeeper/internal/kv"
	"github.com/dmitrijs2005/extkeeper/internal/logging"
	"github.com/dmitrijs2005/extkeeper/internal/ratelimit"
)

// Service is the credential vault. It is safe for concurrent use.
type Service struct {
	store   kv.HashStore
	hasher  cryptox.Hasher
	logger  logging.Logger
	limiter *ratelimit.KeyLimiter
	now     func() time.Time

	dummyOnce sync.Once
	dummy     string
}

type Option func(*Service)

// WithLimiter throttles Verify per subject.
func WithLimiter(l *ratelimit.KeyLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithClock replaces time.Now for the limiter.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store kv.HashStore, hasher cryptox.Hasher, logger logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Store hashes every present secret with a fresh salt and writes all of the
// hashes for subject in one call, replacing earlier values field by field.
// With no secrets present nothing is written and the result is empty.
func (s *Service) Store(ctx context.Context, subject string, secrets Secrets) (Hashes, error) {
	if err := checkSubject(subject); err != nil {
		return nil, err
	}

	present := secrets.byField()
	out := make(Hashes, len(present))
	if len(present) == 0 {
		return out, nil
	}

	fields := make(map[string]string, len(present))
	for f, secret := range present {
		encoded, err := s.hasher.Hash([]byte(secret))
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", f.Kind(), err)
		}
		fields[string(f)] = encoded
		out[f.Kind()] = encoded
	}

	if err := s.store.HSet(ctx, credentialKey(subject), fields); err != nil {
		s.logger.Error(ctx, "credential store failed", "subject", subject, "error", err)
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info(ctx, "credential stored", "subject", subject, "fields", len(fields))
	return out, nil
}

// Verify reports whether candidate matches the hash stored under field for
// subject. An absent hash yields false. Only backend failures, invalid input
// and throttling produce an error.
func (s *Service) Verify(ctx context.Context, subject string, field Field, candidate string) (bool, error) {
	if err := checkSubject(subject); err != nil {
		return false, err
	}
	if !field.Valid() {
		return false, fmt.Errorf("%w: unknown credential field %q", common.ErrInvalidInput, field)
	}

	if !s.limiter.Allow(subject, s.now()) {
		s.logger.Warn(ctx, "verification throttled", "subject", subject)
		return false, common.ErrRateLimited
	}

	encoded, err := s.lookup(ctx, subject, field)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the absent path as slow as a real comparison
			_, _ = s.hasher.Verify([]byte(candidate), s.dummyHash())
			s.logger.Debug(ctx, "credential verification", "subject", subject, "field", field, "ok", false)
			return false, nil
		}
		s.logger.Error(ctx, "credential lookup failed", "subject", subject, "field", field, "error", err)
		return false, fmt.Errorf("verify credential: %w", err)
	}

	ok, err := s.hasher.Verify([]byte(candidate), encoded)
	if err != nil {
		if errors.Is(err, cryptox.ErrMalformedHash) {
			s.logger.Warn(ctx, "stored hash is malformed", "subject", subject, "field", field)
			return false, nil
		}
		return false, fmt.Errorf("verify credential: %w", err)
	}

	s.logger.Debug(ctx, "credential verification", "subject", subject, "field", field, "ok", ok)
	return ok, nil
}

// Revoke deletes the given fields of subject, or all of them when none are
// named, and returns how many hashes were removed. Hashes left at the legacy
// location are removed too.
func (s *Service) Revoke(ctx context.Context, subject string, fields ...Field) (int64, error) {
	if err := checkSubject(subject); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		fields = Fields
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Valid() {
			return 0, fmt.Errorf("%w: unknown credential field %q", common.ErrInvalidInput, f)
		}
		names = append(names, string(f))
	}

	n, err := s.store.HDel(ctx, credentialKey(subject), names...)
	if err != nil {
		return 0, fmt.Errorf("revoke credential: %w", err)
	}
	legacy, err := s.store.HDel(ctx, legacyKey(subject), names...)
	if err != nil {
		return n, fmt.Errorf("revoke credential: %w", err)
	}
	n += legacy

	s.logger.Info(ctx, "credential revoked", "subject", subject, "removed", n)
	return n, nil
}

// lookup reads the current hash, falling back to the legacy location.
func (s *Service) lookup(ctx context.Context, subject string, field Field) (string, error) {
	encoded, err := s.store.HGet(ctx, credentialKey(subject), string(field))
	if !errors.Is(err, common.ErrorNotFound) {
		return encoded, err
	}

	encoded, err = s.store.HGet(ctx, legacyKey(subject), string(field))
	if err == nil {
		s.logger.Debug(ctx, "credential read from legacy key", "subject", subject, "field", field)
	}
	return encoded, err
}

func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(common.GenerateRandByteArray(32))
		if err == nil {
			s.dummy = h
		}
	})
	return s.dummy
}

func checkSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: empty subject", common.ErrInvalidInput)
	}
	return nil
}
