// internal/core/ports/snapshot.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// SnapshotService renders the stock spreadsheet
type SnapshotService interface {
	// Generate builds the spreadsheet in memory
	Generate(ctx context.Context) (*domain.Snapshot, error)
	// Publish builds the spreadsheet and stores it
	Publish(ctx context.Context) (*domain.Snapshot, error)
}
