// internal/adapters/queue/tasks.go
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// Task types
const (
	TypeStockChanged  = "inventory:stock_changed"
	TypeStockDepleted = "inventory:stock_depleted"
	TypeSnapshot      = "inventory:snapshot"
)

// Queue names, matching the ASYNQ_QUEUES weights
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// SnapshotPayload is the body of an inventory:snapshot task
type SnapshotPayload struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewStockChangedTask wraps a stock event for the audit processor
func NewStockChangedTask(event domain.StockEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock event: %w", err)
	}
	return asynq.NewTask(TypeStockChanged, payload), nil
}

// NewStockDepletedTask wraps a stock event that left an item without stock
func NewStockDepletedTask(event domain.StockEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stock event: %w", err)
	}
	return asynq.NewTask(TypeStockDepleted, payload), nil
}

// NewSnapshotTask requests a stock snapshot upload
func NewSnapshotTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(SnapshotPayload{Reason: reason, RequestedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}
	return asynq.NewTask(TypeSnapshot, payload), nil
}

// ParseStockEvent decodes the payload of a stock task. Malformed payloads
// are not retried.
func ParseStockEvent(t *asynq.Task) (domain.StockEvent, error) {
	var event domain.StockEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if event.ItemCode == "" {
		return event, fmt.Errorf("%s payload has no item code: %w", t.Type(), asynq.SkipRetry)
	}
	return event, nil
}

// ParseSnapshotPayload decodes the payload of a snapshot task. An empty
// payload is accepted.
func ParseSnapshotPayload(t *asynq.Task) (SnapshotPayload, error) {
	var payload SnapshotPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return payload, nil
}
