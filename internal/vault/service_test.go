package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/extkeeper/internal/common"
	"github.com/dmitrijs2005/extkeeper/internal/cryptox"
	"github.com/dmitrijs2005/extkeeper/internal/kv"
	"github.com/dmitrijs2005/extkeeper/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newTestHasher(t *testing.T) *cryptox.MultiHasher {
	t.Helper()
	h, err := cryptox.NewHasher(cryptox.AlgorithmArgon2id,
		cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1}, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestService(t *testing.T, opts ...Option) (*Service, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	return NewService(store, newTestHasher(t), nil, opts...), store
}

// countingStore records writes on top of a real store.
type countingStore struct {
	kv.HashStore
	hsets int
	hdels int
	hgets int
}

func (c *countingStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	c.hsets++
	return c.HashStore.HSet(ctx, key, fields)
}

func (c *countingStore) HDel(ctx context.Context, key string, fields ...string) (int64, error) {
	c.hdels++
	return c.HashStore.HDel(ctx, key, fields...)
}

func (c *countingStore) HGet(ctx context.Context, key, field string) (string, error) {
	c.hgets++
	return c.HashStore.HGet(ctx, key, field)
}

// countingHasher counts Verify calls to observe the absent-field path.
type countingHasher struct {
	cryptox.Hasher
	verifies int
}

func (c *countingHasher) Verify(secret []byte, encoded string) (bool, error) {
	c.verifies++
	return c.Hasher.Verify(secret, encoded)
}

func mustVerify(t *testing.T, s *Service, subject string, f Field, candidate string) bool {
	t.Helper()
	ok, err := s.Verify(context.Background(), subject, f, candidate)
	require.NoError(t, err)
	return ok
}

// --- properties ---

func TestStoreVerify_RoundTrip(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	for _, secret := range []string{"x", "mySecurePassword123!", "  spaced  ", "пароль", "emoji 🔐 secret"} {
		_, err := s.Store(ctx, "metamask", Secrets{Password: secret})
		require.NoError(t, err)
		assert.True(t, mustVerify(t, s, "metamask", FieldPassword, secret), "secret %q", secret)
	}
}

func TestStore_FreshSaltEachTime(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	first, err := s.Store(ctx, "metamask", Secrets{Password: "same"})
	require.NoError(t, err)
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "same"))

	second, err := s.Store(ctx, "metamask", Secrets{Password: "same"})
	require.NoError(t, err)
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "same"))

	assert.NotEqual(t, first[KindPassword], second[KindPassword])

	stored, err := store.HGet(ctx, "credential:metamask", "password_hash")
	require.NoError(t, err)
	assert.Equal(t, second[KindPassword], stored, "only the latest hash is kept")
}

func TestVerify_Negative(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Store(context.Background(), "metamask", Secrets{Password: "s1"})
	require.NoError(t, err)

	for _, candidate := range []string{"s2", "S1", "s1 ", "", "s"} {
		assert.False(t, mustVerify(t, s, "metamask", FieldPassword, candidate), "candidate %q", candidate)
	}
}

func TestVerify_AbsentFailsClosed(t *testing.T) {
	store := kv.NewMemoryStore()
	h := &countingHasher{Hasher: newTestHasher(t)}
	s := NewService(store, h, nil)

	for _, f := range Fields {
		assert.False(t, mustVerify(t, s, "brand-new", f, "anything"))
	}
	assert.Equal(t, len(Fields), h.verifies, "absent path still runs a comparison")
}

func TestStore_FieldIndependence(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	_, err := s.Store(ctx, "metamask", Secrets{Password: "pw-1234567"})
	require.NoError(t, err)

	_, err = store.HGet(ctx, "credential:metamask", "recovery_phrase_hash")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.False(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "pw-1234567"))

	pwBefore, err := store.HGet(ctx, "credential:metamask", "password_hash")
	require.NoError(t, err)

	_, err = s.Store(ctx, "metamask", Secrets{RecoveryPhrase: "alpha beta gamma"})
	require.NoError(t, err)

	pwAfter, err := store.HGet(ctx, "credential:metamask", "password_hash")
	require.NoError(t, err)
	assert.Equal(t, pwBefore, pwAfter)
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "pw-1234567"))
	assert.True(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "alpha beta gamma"))
}

func TestScenario_MetamaskPassword(t *testing.T) {
	s, _ := newTestService(t)

	hashes, err := s.Store(context.Background(), "metamask", Secrets{Password: "mySecurePassword123!"})
	require.NoError(t, err)
	require.Len(t, hashes, 1)
	assert.Contains(t, hashes, KindPassword)

	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "mySecurePassword123!"))
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "wrongpassword"))
	assert.False(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "anything"))
}

func TestScenario_PasswordAndPhrase(t *testing.T) {
	s, _ := newTestService(t)
	phrase := "we are only getting started baby"

	hashes, err := s.Store(context.Background(), "metamask", Secrets{Password: "p1", RecoveryPhrase: phrase})
	require.NoError(t, err)
	require.Len(t, hashes, 2)

	pw, rp := hashes[KindPassword], hashes[KindRecoveryPhrase]
	assert.NotEqual(t, pw, rp)
	assert.NotEqual(t, "p1", pw)
	assert.NotEqual(t, phrase, rp)

	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "p1"))
	assert.True(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, phrase))
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, phrase))
	assert.False(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "p1"))
}

// --- edges ---

func TestStore_NoSecretsIsNoop(t *testing.T) {
	store := &countingStore{HashStore: kv.NewMemoryStore()}
	s := NewService(store, newTestHasher(t), nil)

	hashes, err := s.Store(context.Background(), "metamask", Secrets{})
	require.NoError(t, err)
	assert.Empty(t, hashes)
	assert.Equal(t, 0, store.hsets)
}

func TestInvalidInput_NeverTouchesStore(t *testing.T) {
	store := &countingStore{HashStore: kv.NewMemoryStore()}
	s := NewService(store, newTestHasher(t), nil)
	ctx := context.Background()

	_, err := s.Store(ctx, "", Secrets{Password: "pw"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = s.Store(ctx, "   ", Secrets{Password: "pw"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = s.Verify(ctx, "", FieldPassword, "pw")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	ok, err := s.Verify(ctx, "metamask", Field("seed_hash"), "pw")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.False(t, ok)

	_, err = s.Revoke(ctx, "metamask", Field("seed_hash"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = s.Revoke(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	assert.Zero(t, store.hsets)
	assert.Zero(t, store.hgets)
	assert.Zero(t, store.hdels)
}

func TestBackendDown(t *testing.T) {
	store := kv.NewMemoryStore()
	s := NewService(store, newTestHasher(t), nil)
	require.NoError(t, store.Close())
	ctx := context.Background()

	_, err := s.Store(ctx, "metamask", Secrets{Password: "pw"})
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)

	ok, err := s.Verify(ctx, "metamask", FieldPassword, "pw")
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
	assert.False(t, ok)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	_, err = s.Revoke(ctx, "metamask")
	assert.ErrorIs(t, err, common.ErrBackendUnavailable)
}

func TestVerify_MalformedStoredHashFailsClosed(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.HSet(ctx, "credential:metamask", map[string]string{"password_hash": "plaintext?"}))

	ok, err := s.Verify(ctx, "metamask", FieldPassword, "plaintext?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ExpensiveStoredHashFailsFast(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	slowBcrypt := string(legacy[:4]) + "31" + string(legacy[6:])

	for _, stored := range []string{
		"$argon2id$v=19$m=65536,t=2000,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U",
		"$argon2id$v=19$m=67108864,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U",
		slowBcrypt,
	} {
		require.NoError(t, store.HSet(ctx, "credential:metamask", map[string]string{"password_hash": stored}))

		start := time.Now()
		ok, err := s.Verify(ctx, "metamask", FieldPassword, "pw")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second, stored)
	}
}

func TestVerify_LegacyBcryptHash(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("mySecurePassword123!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.HSet(ctx, "credential:metamask", map[string]string{"password_hash": string(legacy)}))

	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "mySecurePassword123!"))
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "wrongpassword"))
}

func TestVerify_ReadsHashesWrittenUnderExtensionKey(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("mySecurePassword123!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.HSet(ctx, "extension:metamask", map[string]string{
		"extension_id":  "abc123",
		"password_hash": string(legacy),
	}))

	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "mySecurePassword123!"))
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "wrongpassword"))
	assert.False(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "anything"))

	// a new store takes precedence
	_, err = s.Store(ctx, "metamask", Secrets{Password: "rotated-password"})
	require.NoError(t, err)
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "rotated-password"))
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "mySecurePassword123!"))

	// revoking clears both locations and leaves the extension record alone
	n, err := s.Revoke(ctx, "metamask", FieldPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "mySecurePassword123!"))

	rest, err := store.HGetAll(ctx, "extension:metamask")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"extension_id": "abc123"}, rest)
}

func TestRevoke(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Store(ctx, "metamask", Secrets{Password: "p1", RecoveryPhrase: "alpha beta"})
	require.NoError(t, err)

	n, err := s.Revoke(ctx, "metamask", FieldPassword)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "p1"))
	assert.True(t, mustVerify(t, s, "metamask", FieldRecoveryPhrase, "alpha beta"))

	n, err = s.Revoke(ctx, "metamask")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Revoke(ctx, "metamask")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVerify_RateLimited(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &countingStore{HashStore: kv.NewMemoryStore()}
	s := NewService(store, newTestHasher(t), nil,
		WithLimiter(ratelimit.New(1, 2, time.Minute)),
		WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := s.Store(ctx, "metamask", Secrets{Password: "p1"})
	require.NoError(t, err)

	assert.False(t, mustVerify(t, s, "metamask", FieldPassword, "guess"))
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "p1"))

	ok, err := s.Verify(ctx, "metamask", FieldPassword, "p1")
	assert.True(t, errors.Is(err, common.ErrRateLimited))
	assert.False(t, ok)
	assert.Equal(t, 2, store.hgets, "throttled attempt must not reach the store")

	// other subjects have their own budget
	assert.False(t, mustVerify(t, s, "rabby", FieldPassword, "p1"))

	now = now.Add(time.Second)
	assert.True(t, mustVerify(t, s, "metamask", FieldPassword, "p1"))
}

func TestService_ConcurrentUse(t *testing.T) {
	s, _ := newTestService(t, WithLimiter(ratelimit.New(1000, 1000, time.Minute)))
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			subject := fmt.Sprintf("wallet-%d", w)
			secret := fmt.Sprintf("secret-%d", w)

			_, err := s.Store(ctx, subject, Secrets{Password: secret})
			if !assert.NoError(t, err) {
				return
			}

			ok, err := s.Verify(ctx, subject, FieldPassword, secret)
			assert.NoError(t, err)
			assert.True(t, ok, subject)

			// absent fields share the lazily built dummy hash
			ok, err = s.Verify(ctx, subject, FieldRecoveryPhrase, secret)
			assert.NoError(t, err)
			assert.False(t, ok, subject)

			ok, err = s.Verify(ctx, "never-stored", FieldPassword, secret)
			assert.NoError(t, err)
			assert.False(t, ok)
		}(w)
	}
	wg.Wait()
}

func TestVerify_LimiterBudgetUnderConcurrency(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	const burst = 5
	s, _ := newTestService(t,
		WithLimiter(ratelimit.New(0.001, burst, time.Minute)),
		WithClock(func() time.Time { return now }),
	)

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
		limited int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Verify(context.Background(), "metamask", FieldPassword, "guess")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				allowed++
			case errors.Is(err, common.ErrRateLimited):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, burst, allowed)
	assert.Equal(t, attempts-burst, limited)
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{"password_hash", FieldPassword, false},
		{"password", FieldPassword, false},
		{"recovery_phrase_hash", FieldRecoveryPhrase, false},
		{"recovery_phrase", FieldRecoveryPhrase, false},
		{"seed", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseField(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Kind() == KindPassword, tt.want == FieldPassword)
		})
	}
}
