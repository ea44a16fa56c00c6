// Package cache stores encoded values with a TTL in memory or Redis.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented TTL store. A ttl <= 0 means the backend default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

// GetJSON decodes the value at key into v. It reports false on a miss or an
// undecodable value.
func GetJSON(ctx context.Context, c Cache, key string, v any) bool {
	if c == nil {
		return false
	}
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
