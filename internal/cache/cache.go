package cache

import (
	"sync"
	"time"
)

type entry struct {
	body     []byte
	storedAt time.Time
}

// Cache is a small in-memory TTL cache for rendered search responses. It
// stores the marshaled bytes so a hit replays the exact response. The
// persistent metadata cache is Postgres; this only spares the upstream
// search endpoints from repeated identical queries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int
	enabled bool
	now     func() time.Time
}

func New(enabled bool, ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		enabled: enabled,
		now:     time.Now,
	}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.body, true
}

func (c *Cache) Set(key string, body []byte) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}
	c.entries[key] = entry{body: body, storedAt: c.now()}
}

// Purge empties the cache. Used when fetch settings change, since stale
// filter settings would otherwise keep serving pre-change responses.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops expired entries, then the oldest entry if the cache is
// still full. Linear scan; the cache is bounded at a few thousand entries.
func (c *Cache) evictLocked() {
	cutoff := c.now().Add(-c.ttl)
	for k, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey = k
			oldest = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
