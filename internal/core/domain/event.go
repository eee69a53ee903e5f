// internal/core/domain/event.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// StockEventKind identifies the write that produced a stock event
type StockEventKind string

const (
	StockEventCreated     StockEventKind = "created"
	StockEventDeleted     StockEventKind = "deleted"
	StockEventQuantitySet StockEventKind = "quantity_set"
	StockEventDecreased   StockEventKind = "decreased"
)

// StockEvent records a quantity change on a single item
type StockEvent struct {
	ID          uuid.UUID      `json:"id"`
	Kind        StockEventKind `json:"kind"`
	ItemCode    string         `json:"item_code"`
	OldQuantity int            `json:"old_quantity"`
	NewQuantity int            `json:"new_quantity"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewStockEvent(kind StockEventKind, itemCode string, oldQty, newQty int) StockEvent {
	return StockEvent{
		ID:          uuid.New(),
		Kind:        kind,
		ItemCode:    itemCode,
		OldQuantity: oldQty,
		NewQuantity: newQty,
		OccurredAt:  time.Now().UTC(),
	}
}

// Depleted reports whether the change left an existing item without stock
func (e StockEvent) Depleted() bool {
	return e.Kind != StockEventDeleted && e.OldQuantity > 0 && e.NewQuantity <= 0
}
