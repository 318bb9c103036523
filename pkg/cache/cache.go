// Package cache provides the TTL response cache keyed on endpoint and
// normalized query text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Key derives a cache key from the endpoint identity and the normalized
// query text. It is a pure function of its inputs, with no time or
// session component, so identical queries from different sessions share
// an entry.
func Key(endpoint, normalizedQuery string) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(normalizedQuery))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// TTL is a bounded in-memory cache with per-entry expiry and oldest
// first eviction. Entries go stale-until-expired; nothing invalidates
// them explicitly.
type TTL[T any] struct {
	mu      sync.Mutex
	entries map[string]entry[T]
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time // test hook
}

// NewTTL creates a cache holding at most maxSize entries for ttl each.
func NewTTL[T any](maxSize int, ttl time.Duration) *TTL[T] {
	if maxSize <= 0 {
		maxSize = 256
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTL[T]{
		entries: make(map[string]entry[T]),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key. Two racing writers for the same key are
// fine: both computed the same deterministic response, last write wins.
func (c *TTL[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry[T]{value: value, expires: c.now().Add(c.ttl)}
}

// Len reports the number of stored entries, expired or not.
func (c *TTL[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[T]) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *TTL[T]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
