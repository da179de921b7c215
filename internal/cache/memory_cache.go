package cache

import (
	"context"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is the in-process LRU used when Redis is not configured. It is
// bounded by total payload bytes; entries also expire after ttl.
type MemoryCache struct {
	mu       sync.Mutex
	lru      *lru.Cache
	size     int64
	maxBytes int64
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryCache(maxBytes int64, ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		lru:      lru.New(0),
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
	}
	c.lru.OnEvicted = func(_ lru.Key, value interface{}) {
		c.size -= int64(len(value.(memoryEntry).data))
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := v.(memoryEntry)
	if c.ttl > 0 && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.data, true
}

// Set ignores payloads larger than the whole cache.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte) {
	n := int64(len(data))
	if n > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Add pada key yang sama tidak memanggil OnEvicted
	c.lru.Remove(key)
	c.lru.Add(key, memoryEntry{data: data, expires: c.now().Add(c.ttl)})
	c.size += n
	for c.size > c.maxBytes {
		c.lru.RemoveOldest()
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
