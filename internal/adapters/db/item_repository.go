// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

const (
	itemsTable = "items"

	// uniqueViolation is the SQLSTATE raised for duplicate keys
	uniqueViolation = "23505"
)

var (
	psql        = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	itemColumns = []string{"id", "item_code", "quantity", "created_at", "updated_at"}
)

// itemRepository implements ports.ItemRepository
type itemRepository struct {
	db     *Database
	q      querier
	inTx   bool
	logger *slog.Logger
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *Database, logger *slog.Logger) ports.ItemRepository {
	return &itemRepository{
		db:     db,
		q:      db,
		logger: logger.With(slog.String("repository", "items")),
	}
}

// RunInTx binds a copy of the repository to one transaction. Nested calls
// reuse the outer transaction.
func (r *itemRepository) RunInTx(ctx context.Context, fn func(repo ports.ItemRepository) error) error {
	if r.inTx {
		return fn(r)
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		return fn(&itemRepository{
			db:     r.db,
			q:      tx,
			inTx:   true,
			logger: r.logger,
		})
	})
}

// FindByCode returns the item with the given code, or nil
func (r *itemRepository) FindByCode(ctx context.Context, itemCode string) (*domain.Item, error) {
	query, args, err := findByCodeQuery(itemCode)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	item, err := scanItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find item %s: %w", itemCode, err)
	}

	return item, nil
}

// FindByCodes returns the items matching any of the codes, ordered by id
func (r *itemRepository) FindByCodes(ctx context.Context, itemCodes []string) ([]domain.Item, error) {
	if len(itemCodes) == 0 {
		return []domain.Item{}, nil
	}

	query, args, err := findByCodesQuery(itemCodes, false)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// LockByCodes is FindByCodes with FOR UPDATE; it must run inside RunInTx
func (r *itemRepository) LockByCodes(ctx context.Context, itemCodes []string) ([]domain.Item, error) {
	if !r.inTx {
		return nil, fmt.Errorf("lock by codes requires a transaction")
	}
	if len(itemCodes) == 0 {
		return []domain.Item{}, nil
	}

	query, args, err := findByCodesQuery(itemCodes, true)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// FindAll returns every item ordered by id
func (r *itemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// FindAllWithQuantityGreaterThan returns items whose quantity exceeds n
func (r *itemRepository) FindAllWithQuantityGreaterThan(ctx context.Context, n int) ([]domain.Item, error) {
	query, args, err := psql.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Gt{"quantity": n}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryItems(ctx, query, args...)
}

// Save inserts a new item (ID == 0) or updates the quantity of an existing one
func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	if item.ID == 0 {
		return r.insert(ctx, item)
	}
	return r.update(ctx, item)
}

func (r *itemRepository) insert(ctx context.Context, item *domain.Item) error {
	query, args, err := psql.Insert(itemsTable).
		Columns("item_code", "quantity").
		Values(item.ItemCode, item.Quantity).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	err = r.q.QueryRow(ctx, query, args...).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrItemExists
		}
		return fmt.Errorf("failed to insert item: %w", err)
	}

	r.logger.DebugContext(ctx, "item inserted",
		slog.Int64("id", item.ID),
		slog.String("item_code", item.ItemCode))

	return nil
}

func (r *itemRepository) update(ctx context.Context, item *domain.Item) error {
	query, args, err := psql.Update(itemsTable).
		Set("quantity", item.Quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": item.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&item.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	r.logger.DebugContext(ctx, "item updated",
		slog.Int64("id", item.ID),
		slog.Int("quantity", item.Quantity))

	return nil
}

// Delete removes the item by id
func (r *itemRepository) Delete(ctx context.Context, item *domain.Item) error {
	query, args, err := psql.Delete(itemsTable).
		Where(squirrel.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}

	r.logger.InfoContext(ctx, "item deleted",
		slog.String("item_code", item.ItemCode))

	return nil
}

// DecrementQuantity subtracts amount from the quantity in a single statement.
// It does not check the result for negativity.
func (r *itemRepository) DecrementQuantity(ctx context.Context, itemCode string, amount int) error {
	query, args, err := decrementQuery(itemCode, amount)
	if err != nil {
		return fmt.Errorf("failed to build decrement: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement item %s: %w", itemCode, err)
	}

	if tag.RowsAffected() == 0 {
		return &domain.ItemNotFoundError{ItemCode: itemCode}
	}

	return nil
}

func (r *itemRepository) queryItems(ctx context.Context, query string, args ...any) ([]domain.Item, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	if err := row.Scan(&item.ID, &item.ItemCode, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func findByCodeQuery(itemCode string) (string, []any, error) {
	return psql.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"item_code": itemCode}).
		ToSql()
}

func findByCodesQuery(itemCodes []string, forUpdate bool) (string, []any, error) {
	qb := psql.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"item_code": itemCodes}).
		OrderBy("id")
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}
	return qb.ToSql()
}

func decrementQuery(itemCode string, amount int) (string, []any, error) {
	return psql.Update(itemsTable).
		Set("quantity", squirrel.Expr("quantity - ?", amount)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"item_code": itemCode}).
		ToSql()
}
