package fingerprint

import (
	"sync"
	"time"
)

// DefaultTTL is how long a host keeps presenting the same identity.
const DefaultTTL = time.Hour

type cacheEntry struct {
	bundle   Bundle
	issuedAt time.Time
}

// Cache hands out per-host bundles, regenerating only after the TTL so a
// host sees a stable browser identity across visits, even across workers.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given TTL (DefaultTTL when zero).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// For returns the bundle for a host, generating and caching a fresh one
// when none exists or the cached one has expired.
func (c *Cache) For(host string) Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[host]; ok && now.Sub(entry.issuedAt) <= c.ttl {
		return entry.bundle
	}

	b := Generate()
	c.entries[host] = cacheEntry{bundle: b, issuedAt: now}
	return b
}
