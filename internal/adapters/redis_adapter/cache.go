// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/inventory-service/internal/core/ports"
)

// CacheKeyPrefix namespaces keys written by this service
type CacheKeyPrefix string

const (
	PrefixIdempotency CacheKeyPrefix = "inventory:idem"
	PrefixSnapshot    CacheKeyPrefix = "inventory:snapshot"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache provides JSON key/value storage on Redis
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache instance
func NewCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores a value with the default TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set key",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis set error: %w", err)
	}

	c.logger.DebugContext(ctx, "key set",
		slog.String("key", key),
		slog.Duration("ttl", ttl))

	return nil
}

// Get decodes the value stored under key into dest
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		c.logger.ErrorContext(ctx, "failed to get key",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Delete removes keys
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete keys",
			slog.Any("keys", keys),
			slog.Any("error", err))
		return fmt.Errorf("redis del error: %w", err)
	}

	return nil
}

// SetNX sets a key only if it doesn't exist
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal error: %w", err)
	}

	ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to setnx",
			slog.String("key", key),
			slog.Any("error", err))
		return false, fmt.Errorf("redis setnx error: %w", err)
	}

	return ok, nil
}

// Ping checks if Redis is accessible
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// BuildKey creates a key with prefix
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	return strings.Join(append([]string{string(prefix)}, parts...), ":")
}
