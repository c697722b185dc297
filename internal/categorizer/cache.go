package categorizer

import (
	"strings"
	"sync"

	"fjacquet/bankflow/internal/models"
	"fjacquet/bankflow/internal/taxonomy"
)

// Cache memoizes classification results. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(key string) (taxonomy.Pair, bool)
	Set(key string, pair taxonomy.Pair)
	Len() int
}

// CacheKey builds the cache key for a description and direction.
func CacheKey(description string, dir models.Direction) string {
	return strings.ToLower(description) + "_" + string(dir)
}

// MemoryCache is an in-process Cache. With a positive limit the oldest
// entries are evicted first.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]taxonomy.Pair
	order   []string
	limit   int
}

// NewMemoryCache returns a cache holding at most limit entries; zero or a
// negative limit means unbounded.
func NewMemoryCache(limit int) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]taxonomy.Pair),
		limit:   limit,
	}
}

func (c *MemoryCache) Get(key string) (taxonomy.Pair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[key]
	return p, ok
}

func (c *MemoryCache) Set(key string, pair taxonomy.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = pair
		return
	}
	if c.limit > 0 {
		for len(c.order) >= c.limit {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = pair
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
