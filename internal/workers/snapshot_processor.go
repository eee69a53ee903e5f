// internal/workers/snapshot_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/adapters/queue"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

// SnapshotProcessor uploads stock snapshots
type SnapshotProcessor struct {
	service ports.SnapshotService
	logger  *slog.Logger
}

// NewSnapshotProcessor creates a new snapshot processor
func NewSnapshotProcessor(service ports.SnapshotService, logger *slog.Logger) *SnapshotProcessor {
	return &SnapshotProcessor{
		service: service,
		logger:  logger.With(slog.String("processor", "snapshot")),
	}
}

// Register mounts the processor's handlers
func (p *SnapshotProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TypeSnapshot, p.ProcessSnapshot)
}

// ProcessSnapshot builds the stock spreadsheet and stores it
func (p *SnapshotProcessor) ProcessSnapshot(ctx context.Context, t *asynq.Task) error {
	payload, err := queue.ParseSnapshotPayload(t)
	if err != nil {
		return err
	}

	start := time.Now()
	p.logger.InfoContext(ctx, "building stock snapshot",
		slog.String("reason", payload.Reason))

	snapshot, err := p.service.Publish(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}

	p.logger.InfoContext(ctx, "stock snapshot stored",
		slog.String("key", snapshot.Key),
		slog.String("location", snapshot.Location),
		slog.Int("items", snapshot.ItemCount),
		slog.Int("in_stock", snapshot.InStock),
		slog.Duration("duration", time.Since(start)))

	return nil
}
