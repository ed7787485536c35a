// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/tenant-api/internal/config"
)

// Redis holds the client shared by the tenant cache, the token blacklist
// and the rate limiter.
type Redis struct {
	Client      *redis.Client
	pingTimeout time.Duration
}

func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ClientName = "tenant-api"
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
		opts.PoolTimeout = cfg.ReadTimeout + time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	r := &Redis{
		Client:      redis.NewClient(opts),
		pingTimeout: 5 * time.Second,
	}
	if opts.DialTimeout > 0 {
		r.pingTimeout = opts.DialTimeout
	}

	if err := r.Ping(ctx); err != nil {
		_ = r.Client.Close()
		return nil, err
	}

	return r, nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// Ping is the readiness check for the cache tier.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.pingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
