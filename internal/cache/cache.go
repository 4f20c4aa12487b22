// Package cache memoizes expensive backend query results per
// (operation, key), with optional read-count expiry and explicit
// invalidation.
package cache

import (
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// NoExpiry marks an entry that stays valid until explicitly invalidated.
const NoExpiry = 0

type entry struct {
	value any
	// remaining is the number of reads left before self-eviction;
	// NoExpiry disables the counter.
	remaining int
}

// Cache is session-scoped state owned by one repository session.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
}

func New() *Cache {
	return &Cache{entries: map[string]*entry{}}
}

func cacheKey(op, key string) string {
	return op + "\x00" + key
}

// Lookup returns the stored value for (op, key). Reading an expiring entry
// consumes one remaining hit; the entry evicts itself after its last read.
func (c *Cache) Lookup(op, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(op, key)
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	if e.remaining != NoExpiry {
		e.remaining--
		if e.remaining <= 0 {
			delete(c.entries, k)
		}
	}
	return e.value, true
}

// Store records value under (op, key). expiry is the number of reads the
// entry survives; NoExpiry keeps it until invalidation.
func (c *Cache) Store(op, key string, value any, expiry int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(op, key)] = &entry{value: value, remaining: expiry}
}

// Fetch returns the cached value for (op, key) or runs fn to produce it,
// storing the result with the given expiry. Concurrent fetches for the same
// key share a single fn call, so the entry is populated exactly once per
// fetch cycle.
func (c *Cache) Fetch(op, key string, expiry int, fn func() (any, error)) (any, error) {
	if v, ok := c.Lookup(op, key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(cacheKey(op, key), func() (any, error) {
		if v, ok := c.Lookup(op, key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.Store(op, key, v, expiry)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the single entry for (op, key).
func (c *Cache) Invalidate(op, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(op, key))
}

// InvalidateScope drops every entry whose key starts with scope. Mutating
// operations use this to clear results for the affected file or directory.
func (c *Cache) InvalidateScope(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		_, key, ok := strings.Cut(k, "\x00")
		if ok && strings.HasPrefix(key, scope) {
			delete(c.entries, k)
		}
	}
}

// InvalidateAll drops every entry. Driven by change notifications on the
// repository's control-metadata path.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) > 0 {
		slog.Debug("cache invalidated", slog.Int("entries", len(c.entries)))
	}
	c.entries = map[string]*entry{}
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
