package memcache

import (
	"sync"
	"time"

	"github.com/fittrack/backend/internal/domain"
)

// cacheEntry is a single memoized search response with expiration
type cacheEntry struct {
	items      []domain.FoodItem
	expiration time.Time
}

// Cache is a thread-safe in-memory memo of recent search responses, keyed by
// normalized query. It sits in front of the persistent food_master cache so
// repeated identical searches skip the database and provider fan-out for a
// short window. A zero TTL disables it entirely.
type Cache struct {
	data  map[string]cacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
}

// New creates a memo cache with the given TTL.
func New(ttl time.Duration) *Cache {
	cache := &Cache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}

	if ttl > 0 {
		// Cleanup goroutine removes expired entries every 10 minutes
		go cache.cleanupExpired()
	}

	return cache
}

// Get returns the memoized items for key, if present and not expired.
func (c *Cache) Get(key string) ([]domain.FoodItem, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists || time.Now().After(entry.expiration) {
		return nil, false
	}

	// Copy so callers can't mutate the cached slice
	items := make([]domain.FoodItem, len(entry.items))
	copy(items, entry.items)
	return items, true
}

// Set memoizes items under key.
func (c *Cache) Set(key string, items []domain.FoodItem) {
	if c.ttl <= 0 {
		return
	}

	stored := make([]domain.FoodItem, len(items))
	copy(stored, items)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheEntry{
		items:      stored,
		expiration: time.Now().Add(c.ttl),
	}
}

// Delete removes a key from the cache.
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// Size returns the current number of entries (for debugging/monitoring).
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheEntry)
}

// cleanupExpired removes expired entries periodically.
func (c *Cache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, entry := range c.data {
			if now.After(entry.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
