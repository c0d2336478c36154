package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	memoryCacheSize = 16384
	// Upper bound for the LRU's own expiry; per-key TTLs below this are
	// enforced in Get.
	memoryCacheMaxTTL = time.Hour
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache implements Cache on an in-process expirable LRU. It is the
// default backend when no Redis address is configured and keeps the same
// semantics: TTL per key and glob pattern deletion.
type MemoryCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, memoryEntry]
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](memoryCacheSize, nil, memoryCacheMaxTTL),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.lru.Add(key, entry)
	return nil
}

func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.lru.Remove(key)
	}
	return nil
}

func (c *MemoryCache) DelPattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.lru.Keys() {
		if ok, err := path.Match(pattern, key); err != nil {
			return err
		} else if ok {
			c.lru.Remove(key)
		}
	}
	return nil
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
