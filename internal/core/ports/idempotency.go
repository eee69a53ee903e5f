// internal/core/ports/idempotency.go
package ports

import (
	"context"
	"time"
)

// StoredResponse is a completed response kept for replay
type StoredResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

// IdempotencyStore tracks idempotency keys for retried mutations
type IdempotencyStore interface {
	// Claim reserves key. It returns the stored response when the key has
	// already completed, or domain.ErrRequestInProgress while it is held.
	Claim(ctx context.Context, key string, ttl time.Duration) (*StoredResponse, error)
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
