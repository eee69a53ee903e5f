// internal/adapters/queue/publisher.go
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

// Enqueuer is the part of *asynq.Client used by the publisher
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher turns stock events into asynq tasks
type Publisher struct {
	client         Enqueuer
	maxRetry       int
	snapshotWindow time.Duration
	logger         *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher. Snapshot requests are collapsed to one
// per snapshotWindow.
func NewPublisher(client Enqueuer, maxRetry int, snapshotWindow time.Duration, logger *slog.Logger) *Publisher {
	if maxRetry <= 0 {
		maxRetry = 5
	}
	if snapshotWindow <= 0 {
		snapshotWindow = 10 * time.Minute
	}
	return &Publisher{
		client:         client,
		maxRetry:       maxRetry,
		snapshotWindow: snapshotWindow,
		logger:         logger.With(slog.String("component", "queue_publisher")),
	}
}

// PublishStockEvent enqueues the audit task and, when the change emptied
// the item, the depletion task. Task ids derive from the event id, so a
// republished event is not processed twice.
func (p *Publisher) PublishStockEvent(ctx context.Context, event domain.StockEvent) error {
	task, err := NewStockChangedTask(event)
	if err != nil {
		return err
	}

	if err := p.enqueue(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(event.ID.String()),
	); err != nil {
		return err
	}

	if !event.Depleted() {
		return nil
	}

	task, err = NewStockDepletedTask(event)
	if err != nil {
		return err
	}

	return p.enqueue(ctx, task,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(event.ID.String()+":depleted"),
	)
}

// EnqueueSnapshot requests a snapshot upload
func (p *Publisher) EnqueueSnapshot(ctx context.Context, reason string) error {
	task, err := NewSnapshotTask(reason)
	if err != nil {
		return err
	}

	return p.enqueue(ctx, task,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(p.maxRetry),
		asynq.Unique(p.snapshotWindow),
	)
}

func (p *Publisher) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := p.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			p.logger.DebugContext(ctx, "task already enqueued",
				slog.String("type", task.Type()))
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	p.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", task.Type()),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))

	return nil
}
