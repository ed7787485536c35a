// AngelaMos | 2026
// cache.go

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds active tenants by slug. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, slug string) (*Tenant, error)
	Set(ctx context.Context, t *Tenant) error
	Invalidate(ctx context.Context, slug string) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &redisCache{client: client, ttl: ttl}
}

func cacheKey(slug string) string {
	return "tenant:slug:" + slug
}

func (c *redisCache) Get(ctx context.Context, slug string) (*Tenant, error) {
	raw, err := c.client.Get(ctx, cacheKey(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached tenant: %w", err)
	}

	var t Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode cached tenant: %w", err)
	}

	return &t, nil
}

func (c *redisCache) Set(ctx context.Context, t *Tenant) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tenant: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(t.Slug), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache tenant: %w", err)
	}

	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.client.Del(ctx, cacheKey(slug)).Err(); err != nil {
		return fmt.Errorf("invalidate tenant: %w", err)
	}
	return nil
}
