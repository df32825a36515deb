package earnings

import (
	"strings"
	"sync"
	"time"

	"PremarketScanner/internal/model"
)

// DefaultTTL is how long a resolved (or unresolved) lookup stays cached.
const DefaultTTL = 10 * time.Minute

type cacheEntry struct {
	record   model.EarningsRecord
	storedAt time.Time
}

// Cache is a symbol-keyed TTL cache safe for concurrent use. Negative
// results are cached too, so an unresolvable symbol is not re-queried on
// every call inside one batch.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache. A nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

// Get returns the cached record for symbol if present and fresh.
func (c *Cache) Get(symbol string) (model.EarningsRecord, bool) {
	key := strings.ToUpper(symbol)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return model.EarningsRecord{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return model.EarningsRecord{}, false
	}
	return e.record, true
}

// Put stores rec under symbol.
func (c *Cache) Put(symbol string, rec model.EarningsRecord) {
	key := strings.ToUpper(symbol)
	c.mu.Lock()
	c.entries[key] = cacheEntry{record: rec, storedAt: c.now()}
	c.mu.Unlock()
}

// Len reports the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops expired entries.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
