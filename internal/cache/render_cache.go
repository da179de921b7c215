// Package cache keeps rendered certificate artifacts in Redis or, without
// Redis, in a bounded in-process LRU.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmadqo/course-certificates/internal/config"
	"github.com/redis/go-redis/v9"
)

// RenderCache stores rendered PNG/PDF bytes. Misses and backend errors both
// report ok=false; rendering never depends on the cache.
type RenderCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// Key identifies one artifact. The template timestamp invalidates entries
// when the layout is edited.
func Key(certificateID, language, format string, templateUpdatedAt time.Time) string {
	return fmt.Sprintf("certificate:render:%s:%s:%s:%d", certificateID, language, format, templateUpdatedAt.UnixMilli())
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisCache returns nil, nil when no address is configured.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	return NewRedisCacheWithClient(client, ttl, log), nil
}

func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("render cache get failed", "key", key, "error", err)
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) {
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("render cache set failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop disables caching.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte)        {}
