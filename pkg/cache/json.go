package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON 读取并反序列化缓存值
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) error {
	b, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// SetJSON 序列化后写入缓存
func SetJSON(ctx context.Context, c Cache, key string, v interface{}, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, b, ttl)
}
