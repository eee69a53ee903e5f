// internal/handlers/health_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-service/internal/handlers"
	"github.com/ammerola/inventory-service/test/helpers"
	"github.com/ammerola/inventory-service/test/mocks"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubInspector struct {
	err error
}

func (s stubInspector) Queues() ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"default"}, nil
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 3, Pending: 2, Active: 1}, nil
}

func (s stubInspector) Servers() ([]*asynq.ServerInfo, error) {
	return []*asynq.ServerInfo{{}}, nil
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		redisErr       error
		inspectorErr   error
		expectedStatus int
		expected       string
	}{
		{
			name:           "all_dependencies_healthy",
			expectedStatus: http.StatusOK,
			expected:       "healthy",
		},
		{
			name:           "database_down",
			dbErr:          errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expected:       "degraded",
		},
		{
			name:           "redis_down",
			redisErr:       errors.New("i/o timeout"),
			expectedStatus: http.StatusServiceUnavailable,
			expected:       "degraded",
		},
		{
			name:           "queue_down",
			inspectorErr:   errors.New("NOAUTH"),
			expectedStatus: http.StatusServiceUnavailable,
			expected:       "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			db.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)
			if tt.dbErr == nil {
				db.EXPECT().Health(gomock.Any()).Return(map[string]any{"total_conns": 4})
			}

			handler := handlers.NewHealthHandler(db, stubPinger{tt.redisErr}, stubInspector{tt.inspectorErr},
				helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var body handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.expected, body.Status)
			assert.Len(t, body.Services, 3)
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		redisErr       error
		inspectorErr   error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "all_ready",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"ready":true,"details":{"database":"ready","redis":"ready","asynq":"ready"}}`,
		},
		{
			name:           "database_not_ready",
			dbErr:          errors.New("down"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"ready":false,"details":{"database":"not ready","redis":"ready","asynq":"ready"}}`,
		},
		{
			name:           "redis_not_ready",
			redisErr:       errors.New("down"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"ready":false,"details":{"database":"ready","redis":"not ready","asynq":"ready"}}`,
		},
		{
			name:           "queue_not_ready",
			inspectorErr:   errors.New("down"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"ready":false,"details":{"database":"ready","redis":"ready","asynq":"not ready"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			db := mocks.NewMockDatabase(ctrl)
			db.EXPECT().Ping(gomock.Any()).Return(tt.dbErr)

			handler := handlers.NewHealthHandler(db, stubPinger{tt.redisErr}, stubInspector{tt.inspectorErr},
				helpers.LoadTestConfig(), helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestHealthHandler_Readiness_OptionalDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mocks.NewMockDatabase(ctrl)
	db.EXPECT().Ping(gomock.Any()).Return(nil)

	handler := handlers.NewHealthHandler(db, nil, nil, helpers.LoadTestConfig(), helpers.TestLogger())

	w := httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ready":true,"details":{"database":"ready"}}`, w.Body.String())
}
