// internal/core/services/inventory_service_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
	"github.com/ammerola/inventory-service/internal/core/services"
	"github.com/ammerola/inventory-service/test/helpers"
	"github.com/ammerola/inventory-service/test/mocks"
)

type serviceMocks struct {
	repo   *mocks.MockItemRepository
	events *mocks.MockEventPublisher
}

func newService(t *testing.T) (*services.InventoryService, serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := serviceMocks{
		repo:   mocks.NewMockItemRepository(ctrl),
		events: mocks.NewMockEventPublisher(ctrl),
	}

	return services.NewInventoryService(m.repo, m.events, helpers.TestLogger()), m
}

// runTxInline makes RunInTx call fn with the same mock
func runTxInline(repo *mocks.MockItemRepository) {
	repo.EXPECT().
		RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(ports.ItemRepository) error) error {
			return fn(repo)
		})
}

func TestInventoryService_AddItem(t *testing.T) {
	tests := []struct {
		name          string
		req           domain.ItemRequest
		setupMocks    func(m serviceMocks)
		expectedError error
		errorContains string
	}{
		{
			name: "creates_new_item",
			req:  helpers.NewItemRequest("BOOK-1", 5),
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
				m.repo.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, item *domain.Item) error {
						assert.Zero(t, item.ID)
						item.ID = 42
						return nil
					})
				m.events.EXPECT().
					PublishStockEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, e domain.StockEvent) error {
						assert.Equal(t, domain.StockEventCreated, e.Kind)
						assert.Equal(t, 5, e.NewQuantity)
						return nil
					})
			},
		},
		{
			name: "rejects_existing_code",
			req:  helpers.NewItemRequest("BOOK-1", 5),
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().
					FindByCode(gomock.Any(), "BOOK-1").
					Return(helpers.NewItem(1, "BOOK-1", 9), nil)
			},
			expectedError: domain.ErrItemExists,
		},
		{
			name: "unique_violation_on_insert_is_conflict",
			req:  helpers.NewItemRequest("BOOK-1", 5),
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
				m.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(domain.ErrItemExists)
			},
			expectedError: domain.ErrItemExists,
		},
		{
			name:          "blank_code_is_validation_error",
			req:           helpers.NewItemRequest("  ", 5),
			setupMocks:    func(m serviceMocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "missing_quantity_is_validation_error",
			req:           domain.ItemRequest{ItemCode: "BOOK-1"},
			setupMocks:    func(m serviceMocks) {},
			expectedError: domain.ErrValidation,
		},
		{
			name: "repository_error",
			req:  helpers.NewItemRequest("BOOK-1", 5),
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, errors.New("connection refused"))
			},
			errorContains: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)
			tt.setupMocks(m)

			item, err := service.AddItem(context.Background(), tt.req)

			if tt.expectedError != nil || tt.errorContains != "" {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				assert.Nil(t, item)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(42), item.ID)
			assert.Equal(t, "BOOK-1", item.ItemCode)
			assert.Equal(t, 5, item.Quantity)
		})
	}
}

func TestInventoryService_AddItem_PublishFailureDoesNotFail(t *testing.T) {
	service, m := newService(t)

	m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
	m.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
	m.events.EXPECT().PublishStockEvent(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	item, err := service.AddItem(context.Background(), helpers.NewItemRequest("BOOK-1", 1))

	require.NoError(t, err)
	assert.Equal(t, "BOOK-1", item.ItemCode)
}

func TestInventoryService_DeleteItem(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(m serviceMocks)
		expectedError error
	}{
		{
			name: "deletes_existing_item",
			setupMocks: func(m serviceMocks) {
				item := helpers.NewItem(3, "BOOK-1", 4)
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(item, nil)
				m.repo.EXPECT().Delete(gomock.Any(), item).Return(nil)
				m.events.EXPECT().
					PublishStockEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, e domain.StockEvent) error {
						assert.Equal(t, domain.StockEventDeleted, e.Kind)
						assert.Equal(t, 4, e.OldQuantity)
						assert.False(t, e.Depleted())
						return nil
					})
			},
		},
		{
			name: "missing_item_is_not_found",
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
			},
			expectedError: domain.ErrItemNotFound,
		},
		{
			name: "concurrent_delete_is_not_found",
			setupMocks: func(m serviceMocks) {
				item := helpers.NewItem(3, "BOOK-1", 4)
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(item, nil)
				m.repo.EXPECT().Delete(gomock.Any(), item).Return(domain.ErrItemNotFound)
			},
			expectedError: domain.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)
			tt.setupMocks(m)

			err := service.DeleteItem(context.Background(), "BOOK-1")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInventoryService_GetAll(t *testing.T) {
	service, m := newService(t)

	m.repo.EXPECT().FindAll(gomock.Any()).Return([]domain.Item{
		*helpers.NewItem(1, "a", 5),
		*helpers.NewItem(2, "b", 0),
		*helpers.NewItem(3, "c", -3),
	}, nil)

	got, err := service.GetAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []domain.ItemResponse{
		{ItemCode: "a", Quantity: 5, IsInStock: true},
		{ItemCode: "b", Quantity: 0, IsInStock: false},
		{ItemCode: "c", Quantity: -3, IsInStock: false},
	}, got)
}

func TestInventoryService_GetItem(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(m serviceMocks)
		want       domain.ItemResponse
		wantError  bool
	}{
		{
			name: "existing_item",
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(helpers.NewItem(1, "BOOK-1", 2), nil)
			},
			want: domain.ItemResponse{ItemCode: "BOOK-1", Quantity: 2, IsInStock: true},
		},
		{
			name: "missing_item_returns_zero_response",
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
			},
			want: domain.ItemResponse{},
		},
		{
			name: "repository_error",
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, errors.New("timeout"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)
			tt.setupMocks(m)

			got, err := service.GetItem(context.Background(), "BOOK-1")

			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryService_ChangeAmount(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int
		setupMocks    func(m serviceMocks)
		want          domain.ItemResponse
		expectedError error
	}{
		{
			name:     "overwrites_quantity",
			quantity: 2,
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(helpers.NewItem(1, "BOOK-1", 10), nil)
				m.repo.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, item *domain.Item) error {
						assert.Equal(t, 2, item.Quantity)
						return nil
					})
				m.events.EXPECT().
					PublishStockEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, e domain.StockEvent) error {
						assert.Equal(t, 10, e.OldQuantity)
						assert.Equal(t, 2, e.NewQuantity)
						return nil
					})
			},
			want: domain.ItemResponse{ItemCode: "BOOK-1", Quantity: 2, IsInStock: true},
		},
		{
			name:     "negative_quantity_is_stored_verbatim",
			quantity: -4,
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(helpers.NewItem(1, "BOOK-1", 1), nil)
				m.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
				m.events.EXPECT().
					PublishStockEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, e domain.StockEvent) error {
						assert.True(t, e.Depleted())
						return nil
					})
			},
			want: domain.ItemResponse{ItemCode: "BOOK-1", Quantity: -4, IsInStock: false},
		},
		{
			name:     "missing_item_is_not_found",
			quantity: 3,
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
			},
			expectedError: domain.ErrItemNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)
			tt.setupMocks(m)

			got, err := service.ChangeAmount(context.Background(), "BOOK-1", tt.quantity)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryService_GetAllItemsInStock(t *testing.T) {
	service, m := newService(t)

	m.repo.EXPECT().
		FindAllWithQuantityGreaterThan(gomock.Any(), 0).
		Return([]domain.Item{*helpers.NewItem(1, "a", 5)}, nil)

	got, err := service.GetAllItemsInStock(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsInStock)
}

func TestInventoryService_IsInStockManyItems(t *testing.T) {
	tests := []struct {
		name          string
		codes         []string
		setupMocks    func(m serviceMocks)
		want          []domain.ItemResponse
		expectedError error
		errorMsg      string
	}{
		{
			name:  "returns_store_order",
			codes: []string{"b", "a", "b"},
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().
					FindByCodes(gomock.Any(), []string{"b", "a"}).
					Return([]domain.Item{*helpers.NewItem(1, "a", 5), *helpers.NewItem(2, "b", 0)}, nil)
			},
			want: []domain.ItemResponse{
				{ItemCode: "a", Quantity: 5, IsInStock: true},
				{ItemCode: "b", Quantity: 0, IsInStock: false},
			},
		},
		{
			name:  "missing_code_is_not_found",
			codes: []string{"a", "missing"},
			setupMocks: func(m serviceMocks) {
				m.repo.EXPECT().
					FindByCodes(gomock.Any(), []string{"a", "missing"}).
					Return([]domain.Item{*helpers.NewItem(1, "a", 5)}, nil)
			},
			expectedError: domain.ErrItemNotFound,
			errorMsg:      "Item with code:missing Not found",
		},
		{
			name:          "empty_list_is_validation_error",
			codes:         nil,
			setupMocks:    func(m serviceMocks) {},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)
			tt.setupMocks(m)

			got, err := service.IsInStockManyItems(context.Background(), tt.codes)

			if tt.expectedError != nil {
				require.ErrorIs(t, err, tt.expectedError)
				if tt.errorMsg != "" {
					assert.Equal(t, tt.errorMsg, err.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInventoryService_DecreaseQuantityManyItems(t *testing.T) {
	tests := []struct {
		name        string
		adjustments []domain.StockAdjustment
		locked      []domain.Item
		decrements  []domain.StockAdjustment
		wantMsg     string
		wantKind    domain.StockFailure
		wantCode    string
	}{
		{
			name:        "decrements_single_item",
			adjustments: []domain.StockAdjustment{{ItemCode: "a", Amount: 2}},
			locked:      []domain.Item{*helpers.NewItem(1, "a", 5)},
			decrements:  []domain.StockAdjustment{{ItemCode: "a", Amount: 2}},
			wantMsg:     "Quantities reduced successfully for items: [a]",
		},
		{
			name: "decrements_in_input_order",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "b", Amount: 1},
				{ItemCode: "a", Amount: 5},
			},
			locked: []domain.Item{*helpers.NewItem(1, "a", 5), *helpers.NewItem(2, "b", 4)},
			decrements: []domain.StockAdjustment{
				{ItemCode: "b", Amount: 1},
				{ItemCode: "a", Amount: 5},
			},
			wantMsg: "Quantities reduced successfully for items: [b, a]",
		},
		{
			name: "insufficient_stock_applies_nothing",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "a", Amount: 3},
				{ItemCode: "b", Amount: 10},
			},
			locked:   []domain.Item{*helpers.NewItem(1, "a", 5), *helpers.NewItem(2, "b", 4)},
			wantKind: domain.StockInsufficient,
			wantCode: "b",
		},
		{
			name: "insufficiency_is_checked_before_existence",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "missing", Amount: 1},
				{ItemCode: "a", Amount: 9},
			},
			locked:   []domain.Item{*helpers.NewItem(1, "a", 5)},
			wantKind: domain.StockInsufficient,
			wantCode: "a",
		},
		{
			name: "unknown_item",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "a", Amount: 1},
				{ItemCode: "missing", Amount: 1},
			},
			locked:   []domain.Item{*helpers.NewItem(1, "a", 5)},
			wantKind: domain.StockUnknownItem,
		},
		{
			name:        "zero_quantity_item",
			adjustments: []domain.StockAdjustment{{ItemCode: "a", Amount: 0}},
			locked:      []domain.Item{*helpers.NewItem(1, "a", 0)},
			wantKind:    domain.StockZeroQuantity,
			wantCode:    "a",
		},
		{
			name: "duplicate_codes_within_stock",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "a", Amount: 2},
				{ItemCode: "a", Amount: 2},
			},
			locked: []domain.Item{*helpers.NewItem(1, "a", 5)},
			decrements: []domain.StockAdjustment{
				{ItemCode: "a", Amount: 2},
				{ItemCode: "a", Amount: 2},
			},
			wantMsg: "Quantities reduced successfully for items: [a, a]",
		},
		{
			name: "duplicate_codes_exceeding_stock_together",
			adjustments: []domain.StockAdjustment{
				{ItemCode: "a", Amount: 3},
				{ItemCode: "a", Amount: 3},
			},
			locked:   []domain.Item{*helpers.NewItem(1, "a", 5)},
			wantKind: domain.StockInsufficient,
			wantCode: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newService(t)

			runTxInline(m.repo)
			m.repo.EXPECT().
				LockByCodes(gomock.Any(), domain.DistinctCodes(domain.ItemCodes(tt.adjustments))).
				Return(tt.locked, nil)

			var calls []any
			for _, d := range tt.decrements {
				calls = append(calls, m.repo.EXPECT().DecrementQuantity(gomock.Any(), d.ItemCode, d.Amount).Return(nil))
			}
			if len(calls) > 1 {
				gomock.InOrder(calls...)
			}
			if len(tt.decrements) > 0 {
				m.events.EXPECT().PublishStockEvent(gomock.Any(), gomock.Any()).Return(nil).Times(len(tt.decrements))
			}

			msg, err := service.DecreaseQuantityManyItems(context.Background(), tt.adjustments)

			if tt.wantKind != 0 {
				var stockErr *domain.StockError
				require.ErrorAs(t, err, &stockErr)
				assert.Equal(t, tt.wantKind, stockErr.Kind)
				assert.Equal(t, tt.wantCode, stockErr.ItemCode)
				assert.Empty(t, msg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestInventoryService_DecreaseQuantityManyItems_EventsTrackRunningQuantity(t *testing.T) {
	service, m := newService(t)

	runTxInline(m.repo)
	m.repo.EXPECT().LockByCodes(gomock.Any(), []string{"a"}).Return([]domain.Item{*helpers.NewItem(1, "a", 4)}, nil)
	m.repo.EXPECT().DecrementQuantity(gomock.Any(), "a", 2).Return(nil).Times(2)

	var events []domain.StockEvent
	m.events.EXPECT().
		PublishStockEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e domain.StockEvent) error {
			events = append(events, e)
			return nil
		}).
		Times(2)

	_, err := service.DecreaseQuantityManyItems(context.Background(), []domain.StockAdjustment{
		{ItemCode: "a", Amount: 2},
		{ItemCode: "a", Amount: 2},
	})

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 4, events[0].OldQuantity)
	assert.Equal(t, 2, events[0].NewQuantity)
	assert.Equal(t, 2, events[1].OldQuantity)
	assert.Equal(t, 0, events[1].NewQuantity)
	assert.True(t, events[1].Depleted())
}

func TestInventoryService_DecreaseQuantityManyItems_StoreFailureRollsBack(t *testing.T) {
	service, m := newService(t)

	runTxInline(m.repo)
	m.repo.EXPECT().LockByCodes(gomock.Any(), []string{"a", "b"}).Return([]domain.Item{
		*helpers.NewItem(1, "a", 5),
		*helpers.NewItem(2, "b", 5),
	}, nil)
	m.repo.EXPECT().DecrementQuantity(gomock.Any(), "a", 1).Return(nil)
	m.repo.EXPECT().DecrementQuantity(gomock.Any(), "b", 1).Return(errors.New("deadlock detected"))

	_, err := service.DecreaseQuantityManyItems(context.Background(), []domain.StockAdjustment{
		{ItemCode: "a", Amount: 1},
		{ItemCode: "b", Amount: 1},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
}

func TestInventoryService_DecreaseQuantityManyItems_Empty(t *testing.T) {
	service, _ := newService(t)

	_, err := service.DecreaseQuantityManyItems(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInventoryService_NilPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockItemRepository(ctrl)
	service := services.NewInventoryService(repo, nil, helpers.TestLogger())

	repo.EXPECT().FindByCode(gomock.Any(), "BOOK-1").Return(nil, nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	_, err := service.AddItem(context.Background(), helpers.NewItemRequest("BOOK-1", 1))
	assert.NoError(t, err)
}
