package assets

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	content []byte
	fetched time.Time
}

// CachedStore keeps recently served content in memory with a TTL. Writes and
// removals through it invalidate the entry, so it is only correct when every
// mutation of the underlying store goes through the same CachedStore.
type CachedStore struct {
	Store

	mu      sync.RWMutex
	entries map[string]cacheEntry
	gen     uint64 // bumped by every write; fills started before a write are dropped
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewCachedStore wraps s. At most max entries are kept; zero means 256.
func NewCachedStore(s Store, ttl time.Duration, max int) *CachedStore {
	if max <= 0 {
		max = 256
	}
	return &CachedStore{
		Store:   s,
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
	}
}

func (c *CachedStore) valid(e cacheEntry) bool {
	return c.now().Sub(e.fetched) < c.ttl
}

// Get serves from memory when fresh and fills the cache on a miss.
func (c *CachedStore) Get(ctx context.Context, ref string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[ref]
	gen := c.gen
	c.mu.RUnlock()
	if ok && c.valid(e) {
		return e.content, nil
	}

	content, err := c.Store.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.gen == gen {
		if len(c.entries) >= c.max {
			c.evictLocked()
		}
		c.entries[ref] = cacheEntry{content: content, fetched: c.now()}
	}
	c.mu.Unlock()
	return content, nil
}

// evictLocked drops expired entries, or everything if none have expired.
func (c *CachedStore) evictLocked() {
	for ref, e := range c.entries {
		if !c.valid(e) {
			delete(c.entries, ref)
		}
	}
	if len(c.entries) >= c.max {
		c.entries = make(map[string]cacheEntry)
	}
}

// Invalidate drops ref from the cache.
func (c *CachedStore) Invalidate(ref string) {
	c.mu.Lock()
	delete(c.entries, ref)
	c.gen++
	c.mu.Unlock()
}

func (c *CachedStore) Put(ctx context.Context, ref string, content []byte) error {
	defer c.Invalidate(ref)
	return c.Store.Put(ctx, ref, content)
}

func (c *CachedStore) Remove(ctx context.Context, ref string) error {
	defer c.Invalidate(ref)
	return c.Store.Remove(ctx, ref)
}

// Len reports the number of cached entries.
func (c *CachedStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
