// internal/adapters/redis_adapter/idempotency.go
package redis_a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

type idempotencyState string

const (
	statePending   idempotencyState = "pending"
	stateCompleted idempotencyState = "completed"
)

type idempotencyRecord struct {
	State    idempotencyState      `json:"state"`
	Response *ports.StoredResponse `json:"response,omitempty"`
}

// IdempotencyStore implements ports.IdempotencyStore on top of the cache
type IdempotencyStore struct {
	cache  ports.CacheRepository
	logger *slog.Logger
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

func NewIdempotencyStore(cache ports.CacheRepository, logger *slog.Logger) *IdempotencyStore {
	return &IdempotencyStore{
		cache:  cache,
		logger: logger.With(slog.String("component", "idempotency")),
	}
}

// Claim reserves key for the caller
func (s *IdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (*ports.StoredResponse, error) {
	cacheKey := BuildKey(PrefixIdempotency, key)

	// A second attempt covers a key that expired between SETNX and GET.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.cache.SetNX(ctx, cacheKey, idempotencyRecord{State: statePending}, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if ok {
			return nil, nil
		}

		var rec idempotencyRecord
		err = s.cache.Get(ctx, cacheKey, &rec)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read idempotency key: %w", err)
		}

		if rec.State == stateCompleted && rec.Response != nil {
			s.logger.DebugContext(ctx, "replaying stored response", slog.String("key", key))
			return rec.Response, nil
		}
		return nil, domain.ErrRequestInProgress
	}

	return nil, domain.ErrRequestInProgress
}

// Complete stores the final response for replay
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp ports.StoredResponse, ttl time.Duration) error {
	rec := idempotencyRecord{State: stateCompleted, Response: &resp}
	if err := s.cache.SetWithTTL(ctx, BuildKey(PrefixIdempotency, key), rec, ttl); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release drops a claim so the caller may retry
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.cache.Delete(ctx, BuildKey(PrefixIdempotency, key)); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}
