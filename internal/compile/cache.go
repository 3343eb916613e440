package compile

import (
	"sync"
	"time"

	"github.com/tidwall/tinylru"
)

// cacheKey identifies one processed file. A change of size or modification
// time produces a new key, so stale entries simply age out.
type cacheKey struct {
	path      string
	size      int64
	modTime   int64
	minify    bool
	mediaType string
}

func newCacheKey(path string, size int64, modTime time.Time, minify bool, mediaType string) cacheKey {
	return cacheKey{
		path:      path,
		size:      size,
		modTime:   modTime.UnixNano(),
		minify:    minify,
		mediaType: mediaType,
	}
}

// Cache memoizes processed file output. A nil *Cache is a valid, disabled
// cache.
type Cache struct {
	// mu guards replacing lru; tinylru synchronizes its own operations.
	mu   sync.RWMutex
	lru  *tinylru.LRU
	size int
}

// NewCache returns a cache holding up to size entries, or nil when size is
// not positive.
func NewCache(size int) *Cache {
	if size <= 0 {
		return nil
	}
	c := &Cache{size: size}
	c.reset()
	return c
}

func (c *Cache) reset() {
	c.lru = new(tinylru.LRU)
	c.lru.Resize(c.size)
}

func (c *Cache) get(k cacheKey) (string, bool) {
	if c == nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.lru.Get(k)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Cache) set(k cacheKey, v string) {
	if c == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.lru.Set(k, v)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
}
