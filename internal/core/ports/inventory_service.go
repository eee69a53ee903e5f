// internal/core/ports/inventory_service.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// InventoryService defines the application service port for inventory.
type InventoryService interface {
	AddItem(ctx context.Context, req domain.ItemRequest) (*domain.Item, error)
	DeleteItem(ctx context.Context, itemCode string) error
	GetAll(ctx context.Context) ([]domain.ItemResponse, error)
	GetItem(ctx context.Context, itemCode string) (domain.ItemResponse, error)
	ChangeAmount(ctx context.Context, itemCode string, quantity int) (domain.ItemResponse, error)
	GetAllItemsInStock(ctx context.Context) ([]domain.ItemResponse, error)
	IsInStockManyItems(ctx context.Context, itemCodes []string) ([]domain.ItemResponse, error)
	DecreaseQuantityManyItems(ctx context.Context, adjustments []domain.StockAdjustment) (string, error)
}
