package compile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.Nil(t, NewCache(0))

	key := newCacheKey("a.js", 1, time.Unix(1, 0), true, "text/css")
	c.set(key, "x")
	_, ok := c.get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
	assert.NotPanics(t, c.Purge)
}

func TestCacheKeySensitivity(t *testing.T) {
	c := NewCache(8)
	mod := time.Unix(100, 0)

	c.set(newCacheKey("a.js", 10, mod, true, "application/javascript"), "minified")

	got, ok := c.get(newCacheKey("a.js", 10, mod, true, "application/javascript"))
	assert.True(t, ok)
	assert.Equal(t, "minified", got)

	_, ok = c.get(newCacheKey("a.js", 10, mod, false, "application/javascript"))
	assert.False(t, ok, "minify flag is part of the key")

	_, ok = c.get(newCacheKey("a.js", 11, mod, true, "application/javascript"))
	assert.False(t, ok, "size is part of the key")

	_, ok = c.get(newCacheKey("a.js", 10, mod.Add(time.Second), true, "application/javascript"))
	assert.False(t, ok, "modification time is part of the key")
}

func TestCacheEvictionAndPurge(t *testing.T) {
	c := NewCache(2)
	mod := time.Unix(100, 0)

	c.set(newCacheKey("a", 1, mod, false, ""), "a")
	c.set(newCacheKey("b", 1, mod, false, ""), "b")
	c.set(newCacheKey("c", 1, mod, false, ""), "c")

	assert.Equal(t, 2, c.Len())
	_, ok := c.get(newCacheKey("a", 1, mod, false, ""))
	assert.False(t, ok, "least recently used entry is evicted")

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
