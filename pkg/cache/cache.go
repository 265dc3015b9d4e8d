// Package cache wraps dgraph-io/ristretto as an in-process cache for
// resolved schema documents. Studio writes evict; reads of published
// schemas hit this before the template store.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache is a byte-value cache keyed by string.
type Cache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

// New creates a ristretto-backed cache. maxCostBytes is the maximum total
// size of cached values in bytes.
func New(maxCostBytes int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10, // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.c.Get(key)
}

// Set stores a value in the cache with the configured TTL.
func (c *Cache) Set(key string, value []byte) {
	if c == nil {
		return
	}
	c.c.SetWithTTL(key, value, int64(len(value)), c.ttl)
}

// Delete removes a value from the cache. Pending writes are drained
// first so an in-flight Set cannot resurrect the deleted key.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.c.Wait()
	c.c.Del(key)
}

// Close shuts down the cache and releases resources.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.c.Close()
}
