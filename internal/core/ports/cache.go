// internal/core/ports/cache.go
package ports

import (
	"context"
	"time"
)

// CacheRepository defines the interface for key/value operations backed by Redis
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error

	// Conditional operations
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	Ping(ctx context.Context) error
}
