// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemExists        = errors.New("item already exists in the inventory")
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrRequestInProgress = errors.New("a request with this idempotency key is already in progress")
)

// ValidationError describes a malformed request field
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ItemNotFoundError names the code that could not be resolved
type ItemNotFoundError struct {
	ItemCode string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("Item with code:%s Not found", e.ItemCode)
}

func (e *ItemNotFoundError) Unwrap() error {
	return ErrItemNotFound
}

// StockFailure tags which bulk decrement precondition failed
type StockFailure int

const (
	StockInsufficient StockFailure = iota + 1
	StockUnknownItem
	StockZeroQuantity
)

func (f StockFailure) String() string {
	switch f {
	case StockInsufficient:
		return "insufficient"
	case StockUnknownItem:
		return "unknown_item"
	case StockZeroQuantity:
		return "zero_quantity"
	default:
		return "unknown"
	}
}

// StockError is returned when a bulk decrement is rejected. No quantity
// has been changed when it is returned.
type StockError struct {
	Kind     StockFailure
	ItemCode string
}

func (e *StockError) Error() string {
	switch e.Kind {
	case StockInsufficient:
		return fmt.Sprintf("There is not enough of the item: %s in the inventory", e.ItemCode)
	case StockUnknownItem:
		return "One or more items do not exist in the inventory"
	case StockZeroQuantity:
		return fmt.Sprintf("Item: %s has zero units in the inventory", e.ItemCode)
	default:
		return "stock adjustment rejected"
	}
}

func (e *StockError) Unwrap() error {
	if e.Kind == StockUnknownItem {
		return ErrItemNotFound
	}
	return ErrInsufficientStock
}
