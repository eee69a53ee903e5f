// internal/core/ports/item_repository.go
package ports

import (
	"context"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// ItemRepository defines the persistence port for inventory items.
// Lookups return (nil, nil) when nothing matches.
type ItemRepository interface {
	FindByCode(ctx context.Context, itemCode string) (*domain.Item, error)
	FindByCodes(ctx context.Context, itemCodes []string) ([]domain.Item, error)
	FindAll(ctx context.Context) ([]domain.Item, error)
	FindAllWithQuantityGreaterThan(ctx context.Context, quantity int) ([]domain.Item, error)
	Save(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, item *domain.Item) error
	DecrementQuantity(ctx context.Context, itemCode string, amount int) error

	// LockByCodes loads the matching rows and holds a row lock on them
	// until the surrounding transaction ends.
	LockByCodes(ctx context.Context, itemCodes []string) ([]domain.Item, error)

	// RunInTx runs fn against a repository bound to a single transaction.
	RunInTx(ctx context.Context, fn func(repo ItemRepository) error) error
}
