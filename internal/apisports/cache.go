package apisports

import (
	"sync"
	"time"
)

// ResponseCache is a pluggable body cache keyed by request URL. The
// upstream bills per request, so scans re-running within a TTL window
// should not re-spend quota on identical calls.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, body []byte, ttl time.Duration)
}

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process ResponseCache. Expired entries are dropped
// lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.body, true
}

func (c *MemoryCache) Set(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{body: body, expiresAt: time.Now().Add(ttl)}
}
