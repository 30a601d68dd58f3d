// Package cache defines the key/value cache interface shared by feed raw
// payloads, zone geometries, route-check results, and rate-limit counters.
package cache

import (
	"context"
	"time"
)

type Interface interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisBackend satisfies Interface against a *redisstore.Client. Defined
// here rather than in redisstore to keep the interface and its primary
// implementation decoupled, matching the teacher's cache/cache.go +
// cache/redisstore split.
type RedisBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisCache struct {
	backend RedisBackend
}

func New(backend RedisBackend) Interface {
	return &redisCache{backend: backend}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.backend.Get(ctx, key)
}

func (c *redisCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	return c.backend.MGet(ctx, keys)
}

func (c *redisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.backend.Set(ctx, key, val, ttl)
}

func (c *redisCache) Del(ctx context.Context, keys ...string) error {
	return c.backend.Del(ctx, keys...)
}

func (c *redisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.backend.Incr(ctx, key)
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.backend.Expire(ctx, key, ttl)
}
