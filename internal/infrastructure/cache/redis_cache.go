// Package cache keeps aggregator headline resolutions in Redis so repeated
// runs skip the search lookup.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"LeadScanner/internal/ports"
)

const (
	DefaultTTL    = 72 * time.Hour
	DefaultPrefix = "leadscanner:resolve:"
)

// RedisCache implements ports.ResolutionCache.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

var _ ports.ResolutionCache = (*RedisCache)(nil)

// NewRedisCache wraps a client. Non-positive ttl falls back to DefaultTTL.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, prefix string, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

// Get returns the cached URL. Redis errors read as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("resolution cache read failed", key, err)
		}
		return "", false
	}
	return value, value != ""
}

// Set stores value under key; failures are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if c == nil || c.client == nil || value == "" {
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, value, c.ttl).Err(); err != nil {
		c.warn("resolution cache write failed", key, err)
	}
}

func (c *RedisCache) warn(msg, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "key", key, "error", err)
	}
}
