// Package cache is a small in-memory TTL cache for rendered export
// documents. Keys embed the source record's updatedAt, so entries for
// mutated records simply stop being asked for and age out.
package cache

import (
	"sync"
	"time"

	"github.com/andreaspandu8619/mastercreator/pkg/config"
)

type item struct {
	doc        string
	expiration int64
}

func (it item) expired() bool {
	if it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

// Cache is a thread-safe string cache with per-entry expiration and a
// bounded size.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]item
	ttl      time.Duration
	maxItems int
}

// NewCache builds a cache from the configured TTL, purge window and size
// cap. A purge window of zero disables the background sweep.
func NewCache() *Cache {
	cfg := config.Get()

	c := &Cache{
		items:    make(map[string]item),
		ttl:      cfg.Cache.TTL,
		maxItems: cfg.Cache.MaxSize,
	}
	if cfg.Cache.PurgeWindow > 0 {
		go c.purgeLoop(cfg.Cache.PurgeWindow)
	}
	return c
}

// Set stores a document under key with the default TTL, evicting the entry
// closest to expiry when the cache is full.
func (c *Cache) Set(key, doc string) {
	var exp int64
	if c.ttl > 0 {
		exp = time.Now().Add(c.ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldestLocked()
	}
	c.items[key] = item{doc: doc, expiration: exp}
}

// Get returns the document for key if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired() {
		return "", false
	}
	return it.doc, true
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}

// Count returns the number of entries, expired ones included.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache) purgeLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now().UnixNano()
		c.mu.Lock()
		for k, it := range c.items {
			if it.expiration > 0 && now > it.expiration {
				delete(c.items, k)
			}
		}
		c.mu.Unlock()
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest int64
	first := true
	for k, it := range c.items {
		if first || it.expiration < oldest {
			oldestKey = k
			oldest = it.expiration
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
