package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/inventory-service/internal/adapters/queue"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/test/helpers"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type fakeEnqueuer struct {
	calls []enqueued
	errs  map[string]error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := f.errs[task.Type()]; err != nil {
		return nil, err
	}

	byType := make(map[asynq.OptionType]any, len(opts))
	for _, opt := range opts {
		byType[opt.Type()] = opt.Value()
	}
	f.calls = append(f.calls, enqueued{task: task, opts: byType})

	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

func TestPublisher_PublishStockEvent(t *testing.T) {
	tests := []struct {
		name          string
		event         domain.StockEvent
		expectedTypes []string
		expectedQueue []string
	}{
		{
			name:          "plain_change_enqueues_audit_only",
			event:         domain.NewStockEvent(domain.StockEventDecreased, "BOOK-1", 5, 3),
			expectedTypes: []string{queue.TypeStockChanged},
			expectedQueue: []string{queue.QueueDefault},
		},
		{
			name:          "depleting_change_enqueues_both",
			event:         domain.NewStockEvent(domain.StockEventDecreased, "BOOK-1", 2, 0),
			expectedTypes: []string{queue.TypeStockChanged, queue.TypeStockDepleted},
			expectedQueue: []string{queue.QueueDefault, queue.QueueCritical},
		},
		{
			name:          "delete_is_not_a_depletion",
			event:         domain.NewStockEvent(domain.StockEventDeleted, "BOOK-1", 2, 0),
			expectedTypes: []string{queue.TypeStockChanged},
			expectedQueue: []string{queue.QueueDefault},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeEnqueuer{}
			pub := queue.NewPublisher(client, 3, time.Minute, helpers.TestLogger())

			require.NoError(t, pub.PublishStockEvent(context.Background(), tt.event))

			require.Len(t, client.calls, len(tt.expectedTypes))
			for i, call := range client.calls {
				assert.Equal(t, tt.expectedTypes[i], call.task.Type())
				assert.Equal(t, tt.expectedQueue[i], call.opts[asynq.QueueOpt])
				assert.Equal(t, 3, call.opts[asynq.MaxRetryOpt])

				event, err := queue.ParseStockEvent(call.task)
				require.NoError(t, err)
				assert.Equal(t, tt.event.ID, event.ID)
				assert.Equal(t, tt.event.NewQuantity, event.NewQuantity)
			}
			assert.Equal(t, tt.event.ID.String(), client.calls[0].opts[asynq.TaskIDOpt])
		})
	}
}

func TestPublisher_IgnoresDuplicates(t *testing.T) {
	client := &fakeEnqueuer{errs: map[string]error{queue.TypeStockChanged: asynq.ErrTaskIDConflict}}
	pub := queue.NewPublisher(client, 0, 0, helpers.TestLogger())

	err := pub.PublishStockEvent(context.Background(), domain.NewStockEvent(domain.StockEventCreated, "BOOK-1", 0, 3))
	assert.NoError(t, err)
}

func TestPublisher_EnqueueFailure(t *testing.T) {
	client := &fakeEnqueuer{errs: map[string]error{queue.TypeStockChanged: errors.New("redis down")}}
	pub := queue.NewPublisher(client, 0, 0, helpers.TestLogger())

	err := pub.PublishStockEvent(context.Background(), domain.NewStockEvent(domain.StockEventCreated, "BOOK-1", 0, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
}

func TestPublisher_EnqueueSnapshot(t *testing.T) {
	client := &fakeEnqueuer{}
	pub := queue.NewPublisher(client, 0, 5*time.Minute, helpers.TestLogger())

	require.NoError(t, pub.EnqueueSnapshot(context.Background(), "depleted:BOOK-1"))

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, queue.TypeSnapshot, call.task.Type())
	assert.Equal(t, queue.QueueLow, call.opts[asynq.QueueOpt])
	assert.Equal(t, 5*time.Minute, call.opts[asynq.UniqueOpt])

	payload, err := queue.ParseSnapshotPayload(call.task)
	require.NoError(t, err)
	assert.Equal(t, "depleted:BOOK-1", payload.Reason)
	assert.False(t, payload.RequestedAt.IsZero())
}

func TestParsePayloads_RejectMalformed(t *testing.T) {
	_, err := queue.ParseStockEvent(asynq.NewTask(queue.TypeStockChanged, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	_, err = queue.ParseStockEvent(asynq.NewTask(queue.TypeStockChanged, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, err := queue.ParseSnapshotPayload(asynq.NewTask(queue.TypeSnapshot, nil))
	require.NoError(t, err)
	assert.Empty(t, payload.Reason)
}
