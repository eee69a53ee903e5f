// internal/workers/stock_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/adapters/queue"
)

// SnapshotEnqueuer requests an out-of-schedule snapshot
type SnapshotEnqueuer interface {
	EnqueueSnapshot(ctx context.Context, reason string) error
}

// StockProcessor handles stock event tasks
type StockProcessor struct {
	snapshots SnapshotEnqueuer
	logger    *slog.Logger
}

// NewStockProcessor creates a new stock processor. With a nil snapshots,
// depletions are only logged.
func NewStockProcessor(snapshots SnapshotEnqueuer, logger *slog.Logger) *StockProcessor {
	return &StockProcessor{
		snapshots: snapshots,
		logger:    logger.With(slog.String("processor", "stock")),
	}
}

// Register mounts the processor's handlers
func (p *StockProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeStockChanged, p.ProcessStockChanged)
	mux.HandleFunc(queue.TypeStockDepleted, p.ProcessStockDepleted)
}

// ProcessStockChanged writes the audit line for a stock change
func (p *StockProcessor) ProcessStockChanged(ctx context.Context, t *asynq.Task) error {
	event, err := queue.ParseStockEvent(t)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "stock changed",
		slog.String("event_id", event.ID.String()),
		slog.String("kind", string(event.Kind)),
		slog.String("item_code", event.ItemCode),
		slog.Int("old_quantity", event.OldQuantity),
		slog.Int("new_quantity", event.NewQuantity),
		slog.Int("delta", event.NewQuantity-event.OldQuantity),
		slog.Time("occurred_at", event.OccurredAt))

	return nil
}

// ProcessStockDepleted warns about an item that ran out and asks for a
// fresh snapshot
func (p *StockProcessor) ProcessStockDepleted(ctx context.Context, t *asynq.Task) error {
	event, err := queue.ParseStockEvent(t)
	if err != nil {
		return err
	}

	p.logger.WarnContext(ctx, "item out of stock",
		slog.String("event_id", event.ID.String()),
		slog.String("item_code", event.ItemCode),
		slog.Int("previous_quantity", event.OldQuantity))

	if p.snapshots == nil {
		return nil
	}

	if err := p.snapshots.EnqueueSnapshot(ctx, "depleted:"+event.ItemCode); err != nil {
		return fmt.Errorf("failed to request snapshot: %w", err)
	}

	return nil
}
