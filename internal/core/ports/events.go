// internal/core/ports/events.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// EventPublisher hands stock events to the background pipeline
type EventPublisher interface {
	PublishStockEvent(ctx context.Context, event domain.StockEvent) error
}

// SnapshotStorage persists generated stock snapshots
type SnapshotStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
