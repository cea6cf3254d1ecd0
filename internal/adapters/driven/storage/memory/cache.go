package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/TanmayPatraKIIT/KIIT-ChatBot/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.Cache = (*Cache)(nil)

// DefaultCacheCapacity bounds the cache when no capacity is given.
const DefaultCacheCapacity = 1000

type cacheItem struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

type orderEntry struct {
	key      string
	storedAt time.Time
}

// Cache is a bounded in-process key-value cache with per-entry expiry.
// Entries are evicted oldest-first when capacity is exceeded.
type Cache struct {
	mu       sync.Mutex
	items    map[string]cacheItem
	order    []orderEntry
	capacity int
	now      func() time.Time
}

// NewCache creates a cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		items:    make(map[string]cacheItem, capacity),
		order:    make([]orderEntry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Get returns a copy of the value stored under key.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return append([]byte(nil), item.value...), true, nil
}

// Set stores a copy of value under key for ttl. A non-positive ttl deletes the key.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		delete(c.items, key)
		return nil
	}
	now := c.now()
	c.items[key] = cacheItem{
		value:     append([]byte(nil), value...),
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.order = append(c.order, orderEntry{key: key, storedAt: now})
	c.compact(now)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

// DeletePrefix removes every key with the given prefix.
func (c *Cache) DeletePrefix(_ context.Context, prefix string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired ones included until
// they are compacted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// compact drops order entries that no longer match a live item and
// evicts the oldest items while over capacity. Caller must hold mu.
func (c *Cache) compact(now time.Time) {
	for len(c.order) > 0 {
		oldest := c.order[0]
		item, ok := c.items[oldest.key]
		stale := !ok || !item.storedAt.Equal(oldest.storedAt)
		if !stale && len(c.items) <= c.capacity && now.Before(item.expiresAt) {
			break
		}
		c.order = c.order[1:]
		if !stale {
			delete(c.items, oldest.key)
		}
	}
	if len(c.order) > 2*c.capacity {
		c.rebuildOrder()
	}
}

// rebuildOrder drops order entries shadowed by later writes.
func (c *Cache) rebuildOrder() {
	live := c.order[:0]
	for _, e := range c.order {
		if item, ok := c.items[e.key]; ok && item.storedAt.Equal(e.storedAt) {
			live = append(live, e)
		}
	}
	c.order = live
}
