// Package preview caches invite landing-page previews in Redis.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fellowship/internal/invite/models"
)

const (
	// keyPrefix namespaces preview entries by invite code.
	keyPrefix = "invite:preview:"
	// MaxTTL caps how long a preview may be served from cache.
	MaxTTL = 5 * time.Minute
)

// RedisCache is a Redis-backed preview cache.
type RedisCache struct {
	client *redis.Client
	maxTTL time.Duration
}

// Option configures a RedisCache instance.
type Option func(*RedisCache)

// WithMaxTTL overrides MaxTTL.
func WithMaxTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		c.maxTTL = ttl
	}
}

func NewRedisCache(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, maxTTL: MaxTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached preview for code. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, code string) (*models.Preview, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get invite preview: %w", err)
	}
	var p models.Preview
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("decode invite preview: %w", err)
	}
	return &p, true, nil
}

// Set stores p for at most validFor, capped at the cache's max TTL. Nothing is written when
// validFor is not positive.
func (c *RedisCache) Set(ctx context.Context, code string, p *models.Preview, validFor time.Duration) error {
	ttl := min(validFor, c.maxTTL)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode invite preview: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+code, raw, ttl).Err()
}

// Invalidate drops the cached preview for code.
func (c *RedisCache) Invalidate(ctx context.Context, code string) error {
	return c.client.Del(ctx, keyPrefix+code).Err()
}

// TTL reports the remaining lifetime of the cached entry; used by tests and diagnostics.
func (c *RedisCache) TTL(ctx context.Context, code string) (time.Duration, error) {
	return c.client.TTL(ctx, keyPrefix+code).Result()
}
