package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares a window between processes with SET NX PX, so only one
// replica runs a throttled action per window.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedis(client *redis.Client, prefix string, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, window: window}
}

func (l *RedisLimiter) Acquire(ctx context.Context, key string) error {
	if l.window <= 0 {
		return nil
	}
	ok, err := l.client.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339Nano), l.window).Result()
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return ErrThrottled
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}
