// internal/core/domain/item.go
package domain

import (
	"math"
	"strings"
	"time"
)

// Item is a persisted inventory row keyed by its item code
type Item struct {
	ID        int64     `json:"id"`
	ItemCode  string    `json:"itemCode"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// InStock reports whether the item has units available
func (i *Item) InStock() bool {
	return i.Quantity > 0
}

// ToResponse maps the item to its API representation
func (i *Item) ToResponse() ItemResponse {
	return ItemResponse{
		ItemCode:  i.ItemCode,
		Quantity:  i.Quantity,
		IsInStock: i.InStock(),
	}
}

// ToResponses maps a list of items preserving order
func ToResponses(items []Item) []ItemResponse {
	responses := make([]ItemResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	return responses
}

// ItemRequest is the payload used to create an item
type ItemRequest struct {
	ItemCode string `json:"itemCode"`
	Quantity *int   `json:"quantity"`
}

// Validate checks the request shape
func (r *ItemRequest) Validate() error {
	if strings.TrimSpace(r.ItemCode) == "" {
		return NewValidationError("itemCode", "itemCode is required")
	}
	if r.Quantity == nil {
		return NewValidationError("quantity", "quantity is required")
	}
	if *r.Quantity < math.MinInt32 || *r.Quantity > math.MaxInt32 {
		return NewValidationError("quantity", "quantity is out of range")
	}
	return nil
}

// ToItem converts the request into a new, not yet persisted item
func (r *ItemRequest) ToItem() *Item {
	item := &Item{ItemCode: strings.TrimSpace(r.ItemCode)}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	return item
}

// ItemResponse is the read model returned by the API.
// The zero value is what callers receive for an unknown code.
type ItemResponse struct {
	ItemCode  string `json:"itemCode"`
	Quantity  int    `json:"quantity"`
	IsInStock bool   `json:"isInStock"`
}

// StockAdjustment pairs an item code with the amount to take from it
type StockAdjustment struct {
	ItemCode string
	Amount   int
}

// NewStockAdjustments zips the parallel code and amount lists of a bulk decrement
func NewStockAdjustments(itemCodes []string, amounts []int) ([]StockAdjustment, error) {
	if len(itemCodes) == 0 {
		return nil, NewValidationError("itemCodes", "itemCodes must not be empty")
	}
	if len(itemCodes) != len(amounts) {
		return nil, NewValidationError("quantities", "itemCodes and quantities must have the same length")
	}

	adjustments := make([]StockAdjustment, 0, len(itemCodes))
	for i, code := range itemCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, NewValidationError("itemCodes", "itemCodes must not contain blank values")
		}
		if amounts[i] < 0 {
			return nil, NewValidationError("quantities", "quantities must not be negative")
		}
		adjustments = append(adjustments, StockAdjustment{ItemCode: code, Amount: amounts[i]})
	}

	return adjustments, nil
}

// ItemCodes returns the codes of the adjustments in input order
func ItemCodes(adjustments []StockAdjustment) []string {
	codes := make([]string, len(adjustments))
	for i, adj := range adjustments {
		codes[i] = adj.ItemCode
	}
	return codes
}

// DistinctCodes removes duplicates while keeping first-seen order
func DistinctCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	distinct := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		distinct = append(distinct, code)
	}
	return distinct
}
