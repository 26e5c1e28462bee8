// Package cache provides a small bounded result cache used to suppress
// redundant expensive operations (network scans, parsed tool output)
// within a short recency window.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached record.
type entry struct {
	key     string
	value   []byte
	addedAt time.Time
}

// Cache is a bounded list of byte-valued entries. Lookup is linear over a
// small list. Eviction has two independent predicates, a count bound and
// a total-byte bound, both of which must hold after every insertion.
// Stale entries are dropped lazily by the access that discovers them;
// there is no background sweeper.
type Cache struct {
	mu         sync.Mutex
	entries    []entry
	maxEntries int
	maxBytes   int
	ttl        time.Duration
	clock      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		c.clock = clock
	}
}

// New creates a cache holding at most maxEntries entries and maxBytes
// total value bytes, each valid for ttl after insertion.
func New(maxEntries, maxBytes int, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key if present and fresh. A stale
// entry found by this lookup is removed before reporting a miss.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	for i, e := range c.entries {
		if e.key != key {
			continue
		}
		if now.Sub(e.addedAt) > c.ttl {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return nil, false
		}
		value := make([]byte, len(e.value))
		copy(value, e.value)
		return value, true
	}
	return nil, false
}

// Put stores value under key. Any existing entry for the same key is
// removed first, then entries are trimmed oldest-first until both the
// count bound and the byte bound hold.
func (c *Cache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.key == key {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries = append(c.entries, entry{key: key, value: stored, addedAt: c.clock()})

	for len(c.entries) > c.maxEntries || c.totalBytesLocked() > c.maxBytes {
		if len(c.entries) == 0 {
			return
		}
		c.entries = c.entries[1:]
	}
}

// Invalidate removes the entry for key if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e.key == key {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}

// Len returns the current entry count, including entries whose TTL has
// lapsed but which no access has dropped yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) totalBytesLocked() int {
	total := 0
	for _, e := range c.entries {
		total += len(e.value)
	}
	return total
}
