package inventoryclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/handlers"
	"github.com/ammerola/inventory-service/pkg/inventoryclient"
	"github.com/ammerola/inventory-service/test/helpers"
	"github.com/ammerola/inventory-service/test/mocks"
)

type clientMocks struct {
	service     *mocks.MockInventoryService
	idempotency *mocks.MockIdempotencyStore
}

// newTestClient runs the real handler over httptest so status codes and
// bodies are exactly what the service sends
func newTestClient(t *testing.T) (*inventoryclient.Client, clientMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)

	m := clientMocks{
		service:     mocks.NewMockInventoryService(ctrl),
		idempotency: mocks.NewMockIdempotencyStore(ctrl),
	}

	mux := http.NewServeMux()
	handlers.NewInventoryHandler(m.service, m.idempotency, time.Hour, helpers.TestLogger()).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return inventoryclient.New(inventoryclient.Config{BaseURL: server.URL}), m
}

func TestClient_AddItem(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(m clientMocks)
		expectedErr error
	}{
		{
			name: "creates_item",
			setupMocks: func(m clientMocks) {
				m.service.EXPECT().
					AddItem(gomock.Any(), helpers.NewItemRequest("BOOK-1", 5)).
					Return(helpers.NewItem(1, "BOOK-1", 5), nil)
			},
		},
		{
			name: "duplicate_code",
			setupMocks: func(m clientMocks) {
				m.service.EXPECT().AddItem(gomock.Any(), gomock.Any()).Return(nil, domain.ErrItemExists)
			},
			expectedErr: domain.ErrItemExists,
		},
		{
			name: "invalid_request",
			setupMocks: func(m clientMocks) {
				m.service.EXPECT().AddItem(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("itemCode", "itemCode is required"))
			},
			expectedErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, m := newTestClient(t)
			tt.setupMocks(m)

			item, err := client.AddItem(context.Background(), helpers.NewItemRequest("BOOK-1", 5))
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, item)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), item.ID)
			assert.Equal(t, "BOOK-1", item.ItemCode)
			assert.Equal(t, 5, item.Quantity)
		})
	}
}

func TestClient_DeleteItem(t *testing.T) {
	client, m := newTestClient(t)

	m.service.EXPECT().DeleteItem(gomock.Any(), "BOOK-1").Return(nil)
	require.NoError(t, client.DeleteItem(context.Background(), "BOOK-1"))

	m.service.EXPECT().DeleteItem(gomock.Any(), "GONE").
		Return(&domain.ItemNotFoundError{ItemCode: "GONE"})
	err := client.DeleteItem(context.Background(), "GONE")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	var apiErr *inventoryclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Item with code:GONE Not found", apiErr.Message)
}

func TestClient_Reads(t *testing.T) {
	client, m := newTestClient(t)
	ctx := context.Background()

	stocked := []domain.ItemResponse{{ItemCode: "BOOK-1", Quantity: 3, IsInStock: true}}
	all := append(stocked, domain.ItemResponse{ItemCode: "BOOK-2"})

	m.service.EXPECT().GetAll(gomock.Any()).Return(all, nil)
	got, err := client.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, got)

	m.service.EXPECT().GetAllItemsInStock(gomock.Any()).Return(stocked, nil)
	got, err = client.GetAllItemsInStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, stocked, got)

	m.service.EXPECT().GetItem(gomock.Any(), "BOOK-1").Return(stocked[0], nil)
	item, err := client.GetItem(ctx, "BOOK-1")
	require.NoError(t, err)
	assert.Equal(t, stocked[0], item)

	m.service.EXPECT().GetItem(gomock.Any(), "MISSING").Return(domain.ItemResponse{}, nil)
	item, err = client.GetItem(ctx, "MISSING")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemResponse{}, item)
}

func TestClient_GetAll_Empty(t *testing.T) {
	client, m := newTestClient(t)

	m.service.EXPECT().GetAll(gomock.Any()).Return([]domain.ItemResponse{}, nil)
	got, err := client.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClient_ChangeAmount(t *testing.T) {
	client, m := newTestClient(t)

	m.service.EXPECT().ChangeAmount(gomock.Any(), "BOOK-1", 9).
		Return(domain.ItemResponse{ItemCode: "BOOK-1", Quantity: 9, IsInStock: true}, nil)
	item, err := client.ChangeAmount(context.Background(), "BOOK-1", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, item.Quantity)

	m.service.EXPECT().ChangeAmount(gomock.Any(), "BOOK-1", -1).
		Return(domain.ItemResponse{}, domain.NewValidationError("quantity", "quantity must not be negative"))
	_, err = client.ChangeAmount(context.Background(), "BOOK-1", -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClient_IsInStockManyItems_ReturnsOutOfStockItemsToo(t *testing.T) {
	client, m := newTestClient(t)

	m.service.EXPECT().IsInStockManyItems(gomock.Any(), []string{"BOOK-1", "BOOK 2"}).
		Return([]domain.ItemResponse{
			{ItemCode: "BOOK-1", Quantity: 1, IsInStock: true},
			{ItemCode: "BOOK 2", Quantity: 0, IsInStock: false},
		}, nil)

	got, err := client.IsInStockManyItems(context.Background(), []string{"BOOK-1", "BOOK 2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemResponse{
		{ItemCode: "BOOK-1", Quantity: 1, IsInStock: true},
		{ItemCode: "BOOK 2", Quantity: 0, IsInStock: false},
	}, got)
}

func TestClient_DecreaseQuantityManyItems(t *testing.T) {
	adjustments := []domain.StockAdjustment{
		{ItemCode: "BOOK-1", Amount: 2},
		{ItemCode: "BOOK-2", Amount: 1},
	}

	tests := []struct {
		name        string
		serviceErr  error
		expectedErr error
	}{
		{
			name: "decreases",
		},
		{
			name:        "insufficient_stock",
			serviceErr:  &domain.StockError{Kind: domain.StockInsufficient, ItemCode: "BOOK-1"},
			expectedErr: domain.ErrInsufficientStock,
		},
		{
			name:        "zero_quantity",
			serviceErr:  &domain.StockError{Kind: domain.StockZeroQuantity, ItemCode: "BOOK-2"},
			expectedErr: domain.ErrInsufficientStock,
		},
		{
			name:        "unknown_item",
			serviceErr:  &domain.StockError{Kind: domain.StockUnknownItem, ItemCode: "BOOK-9"},
			expectedErr: domain.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, m := newTestClient(t)

			msg := ""
			if tt.serviceErr == nil {
				msg = "Quantities decreased"
			}
			m.service.EXPECT().DecreaseQuantityManyItems(gomock.Any(), adjustments).Return(msg, tt.serviceErr)

			got, err := client.DecreaseQuantityManyItems(context.Background(), adjustments)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Quantities decreased", got)
		})
	}
}

func TestClient_DecreaseQuantityManyItems_IdempotencyKey(t *testing.T) {
	client, m := newTestClient(t)
	adjustments := []domain.StockAdjustment{{ItemCode: "BOOK-1", Amount: 1}}

	m.idempotency.EXPECT().Claim(gomock.Any(), "order-42", time.Hour).Return(nil, domain.ErrRequestInProgress)

	ctx := inventoryclient.WithIdempotencyKey(context.Background(), "order-42")
	_, err := client.DecreaseQuantityManyItems(ctx, adjustments)
	assert.ErrorIs(t, err, domain.ErrRequestInProgress)
}

func TestClient_RetriesReadsOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	client := inventoryclient.New(inventoryclient.Config{
		BaseURL:       server.URL,
		RetryCount:    2,
		RetryWaitTime: time.Millisecond,
	})

	got, err := client.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
	}))
	t.Cleanup(server.Close)

	client := inventoryclient.New(inventoryclient.Config{
		BaseURL:       server.URL,
		RetryCount:    2,
		RetryWaitTime: time.Millisecond,
	})

	_, err := client.DecreaseQuantityManyItems(context.Background(), []domain.StockAdjustment{{ItemCode: "A", Amount: 1}})
	require.Error(t, err)

	var apiErr *inventoryclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Internal server error", apiErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}
