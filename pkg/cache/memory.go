package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryCleanupInterval 后台清理过期条目的周期
const memoryCleanupInterval = 10 * time.Minute

// MemoryCache 基于 go-cache 的进程内缓存
// 过期条目在读取时即视为未命中，并由后台定期清理
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), b...), nil
}

// Set ttl <= 0 表示永不过期
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

// Len 当前条目数（含尚未被清理的过期条目）
func (c *MemoryCache) Len() int {
	return c.store.ItemCount()
}

// Flush 清空全部条目
func (c *MemoryCache) Flush() {
	c.store.Flush()
}
