package cache

import (
	"context"
	"sync"
	"time"

	"learnquest/internal/domain"
)

type memoryEntry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time // zero means no expiry
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is an in-process domain.Cache used when Redis is not configured.
// Entries are evicted lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*memoryEntry), now: time.Now}
}

func (c *MemoryCache) live(key string) (*memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e, true
}

func (c *MemoryCache) deadline(expiration time.Duration) time.Time {
	if expiration <= 0 {
		return time.Time{}
	}
	return c.now().Add(expiration)
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.hash != nil {
		return "", domain.ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &memoryEntry{value: value, expiresAt: c.deadline(expiration)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) HGetAll(_ context.Context, key string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || len(e.hash) == 0 {
		return nil, domain.ErrCacheMiss
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

func (c *MemoryCache) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.hash == nil {
		e = &memoryEntry{hash: make(map[string]string, len(fields))}
		c.entries[key] = e
	}
	for f, v := range fields {
		e.hash[f] = v
	}
	return nil
}

// Expire follows Redis semantics: a non-positive expiration deletes the key.
func (c *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return nil
	}
	if expiration <= 0 {
		delete(c.entries, key)
		return nil
	}
	e.expiresAt = c.deadline(expiration)
	return nil
}
