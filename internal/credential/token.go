// Package credential holds short-lived elevation credentials in memory.
// The token is never written to disk and never appears in any log record;
// audit entries describe cache transitions only.
package credential

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dedsec-deck/deckd/internal/audit"
)

// DefaultTTL is how long a cached token stays valid after Set.
const DefaultTTL = 15 * time.Minute

// TokenCache stores a single sudo token with a fixed TTL. Expiry is lazy:
// the deadline is checked on access, no background timer runs.
type TokenCache struct {
	mu       sync.Mutex
	token    string
	deadline time.Time
	ttl      time.Duration
	clock    func() time.Time

	audit  *audit.Logger
	logger *slog.Logger
}

// Option configures a TokenCache.
type Option func(*TokenCache)

// WithTTL overrides the default token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *TokenCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces the time source. Tests use this to force expiry.
func WithClock(clock func() time.Time) Option {
	return func(c *TokenCache) {
		c.clock = clock
	}
}

// NewTokenCache creates an empty cache.
func NewTokenCache(auditLogger *audit.Logger, logger *slog.Logger, opts ...Option) *TokenCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &TokenCache{
		ttl:    DefaultTTL,
		clock:  time.Now,
		audit:  auditLogger,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores a token and restarts the TTL. An empty token clears the cache.
func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == "" {
		c.clearLocked("cleared")
		return
	}

	c.token = token
	c.deadline = c.clock().Add(c.ttl)
	c.logger.Info("credential cached", "ttl", c.ttl)
	c.audit.LogEvent(context.Background(), audit.EventSudo, "token_cached", map[string]any{"ttl_seconds": int(c.ttl.Seconds())})
}

// Get returns the cached token. An expired token is removed on this access
// and reported as absent.
func (c *TokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		return "", false
	}
	if c.clock().After(c.deadline) {
		c.clearLocked("expired")
		return "", false
	}
	return c.token, true
}

// Valid reports whether a non-expired token is cached, without extending
// or touching it.
func (c *TokenCache) Valid() bool {
	_, ok := c.Get()
	return ok
}

// Clear removes the token immediately.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked("cleared")
}

func (c *TokenCache) clearLocked(reason string) {
	if c.token == "" {
		return
	}
	c.token = ""
	c.deadline = time.Time{}
	c.logger.Info("credential removed", "reason", reason)
	c.audit.LogEvent(context.Background(), audit.EventSudo, "token_"+reason, nil)
}
