package credential_test

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dedsec-deck/deckd/internal/audit"
	"github.com/dedsec-deck/deckd/internal/credential"
)

func newCacheWithClock(now *time.Time) *credential.TokenCache {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return credential.NewTokenCache(audit.NewLogger(logger), logger,
		credential.WithClock(func() time.Time { return *now }))
}

func TestTokenCacheSetGet(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	cache.Set("hunter2")
	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "hunter2", got)
	assert.True(t, cache.Valid())
}

func TestTokenCacheEmptyByDefault(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	_, ok := cache.Get()
	assert.False(t, ok)
	assert.False(t, cache.Valid())
}

func TestTokenCacheExpiresLazily(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	cache.Set("hunter2")

	now = now.Add(credential.DefaultTTL - time.Second)
	_, ok := cache.Get()
	assert.True(t, ok, "token inside TTL must survive")

	now = now.Add(2 * time.Second)
	_, ok = cache.Get()
	assert.False(t, ok, "token past TTL must be dropped on access")

	// The expired token is gone for good, not just hidden.
	now = now.Add(-time.Hour)
	_, ok = cache.Get()
	assert.False(t, ok)
}

func TestTokenCacheSetRestartsTTL(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	cache.Set("first")
	now = now.Add(credential.DefaultTTL - time.Second)
	cache.Set("second")

	now = now.Add(credential.DefaultTTL - time.Second)
	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestTokenCacheClear(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	cache.Set("hunter2")
	cache.Clear()

	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestTokenCacheSetEmptyClears(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	cache.Set("hunter2")
	cache.Set("")

	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestTokenCacheNeverLogsValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	cache := credential.NewTokenCache(audit.NewLogger(logger), logger)

	cache.Set("s3cret-token-value")
	_, _ = cache.Get()
	cache.Clear()

	assert.NotContains(t, buf.String(), "s3cret-token-value")
}

func TestTokenCacheConcurrentAccess(t *testing.T) {
	now := time.Now()
	cache := newCacheWithClock(&now)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Set("concurrent")
			_, _ = cache.Get()
			cache.Clear()
		}()
	}
	wg.Wait()
}
