package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements EmbeddingCache in memory with optional TTL expiry
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache. A zero defaultTTL means
// snapshots never expire; they are evicted only by Clear or key rotation.
func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	cleanup := 10 * time.Minute
	if defaultTTL == 0 {
		defaultTTL = gocache.NoExpiration
		cleanup = 0
	}
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanup),
	}
}

// Get retrieves a snapshot from the cache
func (c *MemoryCache) Get(key string) (Embeddings, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(Embeddings), true
	}
	return nil, false
}

// Set stores a snapshot with the default TTL
func (c *MemoryCache) Set(key string, value Embeddings) {
	c.cache.SetDefault(key, value)
}

// Clear removes all snapshots
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}
