// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

const tracerName = "github.com/ammerola/inventory-service/internal/core/services"

// InventoryService handles inventory business logic
type InventoryService struct {
	repo   ports.ItemRepository
	events ports.EventPublisher
	logger *slog.Logger
	tracer trace.Tracer
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service. events may be nil,
// in which case no stock events are published.
func NewInventoryService(repo ports.ItemRepository, events ports.EventPublisher, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:   repo,
		events: events,
		logger: logger.With(slog.String("service", "inventory")),
		tracer: otel.Tracer(tracerName),
	}
}

// AddItem creates a new item. It fails with domain.ErrItemExists when the
// code is already taken.
func (s *InventoryService) AddItem(ctx context.Context, req domain.ItemRequest) (item *domain.Item, err error) {
	ctx, span := s.startSpan(ctx, "AddItem", attribute.String("item_code", req.ItemCode))
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	item = req.ToItem()

	existing, err := s.repo.FindByCode(ctx, item.ItemCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up item: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrItemExists
	}

	if err := s.repo.Save(ctx, item); err != nil {
		if errors.Is(err, domain.ErrItemExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.InfoContext(ctx, "item added",
		slog.String("item_code", item.ItemCode),
		slog.Int("quantity", item.Quantity))

	s.publish(ctx, domain.NewStockEvent(domain.StockEventCreated, item.ItemCode, 0, item.Quantity))

	return item, nil
}

// DeleteItem removes the item with the given code
func (s *InventoryService) DeleteItem(ctx context.Context, itemCode string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteItem", attribute.String("item_code", itemCode))
	defer func() { endSpan(span, err) }()

	item, err := s.repo.FindByCode(ctx, itemCode)
	if err != nil {
		return fmt.Errorf("failed to look up item: %w", err)
	}
	if item == nil {
		return &domain.ItemNotFoundError{ItemCode: itemCode}
	}

	if err := s.repo.Delete(ctx, item); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return &domain.ItemNotFoundError{ItemCode: itemCode}
		}
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.InfoContext(ctx, "item deleted", slog.String("item_code", itemCode))

	s.publish(ctx, domain.NewStockEvent(domain.StockEventDeleted, item.ItemCode, item.Quantity, 0))

	return nil
}

// GetAll returns every item
func (s *InventoryService) GetAll(ctx context.Context) (resp []domain.ItemResponse, err error) {
	ctx, span := s.startSpan(ctx, "GetAll")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return domain.ToResponses(items), nil
}

// GetItem returns the item with the given code. A missing code yields the
// zero response rather than an error.
func (s *InventoryService) GetItem(ctx context.Context, itemCode string) (resp domain.ItemResponse, err error) {
	ctx, span := s.startSpan(ctx, "GetItem", attribute.String("item_code", itemCode))
	defer func() { endSpan(span, err) }()

	item, err := s.repo.FindByCode(ctx, itemCode)
	if err != nil {
		return domain.ItemResponse{}, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		s.logger.DebugContext(ctx, "item not found, returning empty response",
			slog.String("item_code", itemCode))
		return domain.ItemResponse{}, nil
	}

	return item.ToResponse(), nil
}

// ChangeAmount overwrites the quantity of an existing item
func (s *InventoryService) ChangeAmount(ctx context.Context, itemCode string, quantity int) (resp domain.ItemResponse, err error) {
	ctx, span := s.startSpan(ctx, "ChangeAmount",
		attribute.String("item_code", itemCode),
		attribute.Int("quantity", quantity))
	defer func() { endSpan(span, err) }()

	item, err := s.repo.FindByCode(ctx, itemCode)
	if err != nil {
		return domain.ItemResponse{}, fmt.Errorf("failed to look up item: %w", err)
	}
	if item == nil {
		return domain.ItemResponse{}, &domain.ItemNotFoundError{ItemCode: itemCode}
	}

	oldQuantity := item.Quantity
	item.Quantity = quantity

	if err := s.repo.Save(ctx, item); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return domain.ItemResponse{}, &domain.ItemNotFoundError{ItemCode: itemCode}
		}
		return domain.ItemResponse{}, fmt.Errorf("failed to update quantity: %w", err)
	}

	s.logger.InfoContext(ctx, "quantity changed",
		slog.String("item_code", itemCode),
		slog.Int("old_quantity", oldQuantity),
		slog.Int("new_quantity", quantity))

	s.publish(ctx, domain.NewStockEvent(domain.StockEventQuantitySet, itemCode, oldQuantity, quantity))

	return item.ToResponse(), nil
}

// GetAllItemsInStock returns the items with a positive quantity
func (s *InventoryService) GetAllItemsInStock(ctx context.Context) (resp []domain.ItemResponse, err error) {
	ctx, span := s.startSpan(ctx, "GetAllItemsInStock")
	defer func() { endSpan(span, err) }()

	items, err := s.repo.FindAllWithQuantityGreaterThan(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list items in stock: %w", err)
	}

	return domain.ToResponses(items), nil
}

// IsInStockManyItems returns the stock state of every requested item. It
// fails with the first code, in input order, that does not exist. The result
// follows store order.
func (s *InventoryService) IsInStockManyItems(ctx context.Context, itemCodes []string) (resp []domain.ItemResponse, err error) {
	ctx, span := s.startSpan(ctx, "IsInStockManyItems", attribute.StringSlice("item_codes", itemCodes))
	defer func() { endSpan(span, err) }()

	if len(itemCodes) == 0 {
		return nil, domain.NewValidationError("itemCodes", "itemCodes must not be empty")
	}

	items, err := s.repo.FindByCodes(ctx, domain.DistinctCodes(itemCodes))
	if err != nil {
		return nil, fmt.Errorf("failed to look up items: %w", err)
	}

	found := make(map[string]struct{}, len(items))
	for _, item := range items {
		found[item.ItemCode] = struct{}{}
	}
	for _, code := range itemCodes {
		if _, ok := found[code]; !ok {
			return nil, &domain.ItemNotFoundError{ItemCode: code}
		}
	}

	return domain.ToResponses(items), nil
}

// DecreaseQuantityManyItems takes each adjustment's amount from its item.
// The checks run in a fixed order against locked rows: sufficiency of the
// running total per code, existence of every code, then no locked item at zero or below. Either all
// decrements are applied or none.
func (s *InventoryService) DecreaseQuantityManyItems(ctx context.Context, adjustments []domain.StockAdjustment) (msg string, err error) {
	codes := domain.ItemCodes(adjustments)

	ctx, span := s.startSpan(ctx, "DecreaseQuantityManyItems", attribute.StringSlice("item_codes", codes))
	defer func() { endSpan(span, err) }()

	if len(adjustments) == 0 {
		return "", domain.NewValidationError("itemCodes", "itemCodes must not be empty")
	}

	var events []domain.StockEvent

	err = s.repo.RunInTx(ctx, func(repo ports.ItemRepository) error {
		distinct := domain.DistinctCodes(codes)

		locked, err := repo.LockByCodes(ctx, distinct)
		if err != nil {
			return fmt.Errorf("failed to lock items: %w", err)
		}

		byCode := make(map[string]domain.Item, len(locked))
		for _, item := range locked {
			byCode[item.ItemCode] = item
		}

		// Repeated codes draw on the same row, so amounts accumulate per code.
		requested := make(map[string]int, len(byCode))
		for _, adj := range adjustments {
			item, ok := byCode[adj.ItemCode]
			if !ok {
				continue
			}
			requested[adj.ItemCode] += adj.Amount
			if item.Quantity-requested[adj.ItemCode] < 0 {
				return &domain.StockError{Kind: domain.StockInsufficient, ItemCode: adj.ItemCode}
			}
		}

		if len(locked) != len(distinct) {
			return &domain.StockError{Kind: domain.StockUnknownItem}
		}

		for _, item := range locked {
			if !item.InStock() {
				return &domain.StockError{Kind: domain.StockZeroQuantity, ItemCode: item.ItemCode}
			}
		}

		running := make(map[string]int, len(byCode))
		for code, item := range byCode {
			running[code] = item.Quantity
		}

		events = make([]domain.StockEvent, 0, len(adjustments))
		for _, adj := range adjustments {
			if err := repo.DecrementQuantity(ctx, adj.ItemCode, adj.Amount); err != nil {
				return fmt.Errorf("failed to decrement %s: %w", adj.ItemCode, err)
			}
			old := running[adj.ItemCode]
			running[adj.ItemCode] = old - adj.Amount
			events = append(events, domain.NewStockEvent(domain.StockEventDecreased, adj.ItemCode, old, old-adj.Amount))
		}

		return nil
	})
	if err != nil {
		var stockErr *domain.StockError
		if errors.As(err, &stockErr) {
			s.logger.WarnContext(ctx, "bulk decrease rejected",
				slog.String("reason", stockErr.Kind.String()),
				slog.String("item_code", stockErr.ItemCode))
			return "", stockErr
		}
		return "", fmt.Errorf("failed to decrease quantities: %w", err)
	}

	s.logger.InfoContext(ctx, "quantities decreased",
		slog.Int("count", len(adjustments)),
		slog.Any("item_codes", codes))

	for _, event := range events {
		s.publish(ctx, event)
	}

	return fmt.Sprintf("Quantities reduced successfully for items: [%s]", strings.Join(codes, ", ")), nil
}

// publish hands the event off without failing the caller
func (s *InventoryService) publish(ctx context.Context, event domain.StockEvent) {
	if s.events == nil {
		return
	}

	if err := s.events.PublishStockEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish stock event",
			slog.Any("error", err),
			slog.String("kind", string(event.Kind)),
			slog.String("item_code", event.ItemCode))
	}
}

func (s *InventoryService) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "InventoryService."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
