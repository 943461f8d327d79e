package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc produces a value for a cache key on miss. It may be I/O-bound.
type LoaderFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a process-local TTL cache. Entries live for their TTL or until the
// process exits; nothing survives a restart. Constructed once at startup and
// passed to the components that need it.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	// overridable for tests
	now func() time.Time
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrLoad returns the cached value for key if unexpired, otherwise invokes
// loader, stores its result for ttl, and returns it. Concurrent callers on the
// same cold key share one loader invocation. A failed loader stores nothing:
// the next call retries as if the cache were absent.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader LoaderFunc) (interface{}, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the key while we queued
		if v, ok := c.get(key); ok {
			return v, nil
		}
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Cache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// ClearPrefix removes every entry whose key starts with prefix, e.g. all
// "product:" entries, without flushing unrelated lookups.
func (c *Cache) ClearPrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Flush removes all entries
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
