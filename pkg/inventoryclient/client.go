// pkg/inventoryclient/client.go

// Package inventoryclient is a typed HTTP client for the inventory API.
// Failures carry the same domain sentinels the service returns, so callers
// can branch with errors.Is whether they talk to the service in process or
// over the network.
package inventoryclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Config holds client configuration
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
}

// Client talks to the /inventory endpoints
type Client struct {
	http *resty.Client
}

var _ ports.InventoryService = (*Client)(nil)

// New creates a client. Only GET requests are retried.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWaitTime == 0 {
		cfg.RetryWaitTime = 200 * time.Millisecond
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(4 * cfg.RetryWaitTime).
		AddRetryCondition(retryReads)

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		otel.GetTextMapPropagator().Inject(r.Context(), propagation.HeaderCarrier(r.Header))
		return nil
	})

	return &Client{http: rc}
}

func retryReads(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

type idempotencyKey struct{}

// WithIdempotencyKey makes the next DecreaseQuantityManyItems made with ctx
// safe to repeat: the server answers duplicates with the first response.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// AddItem creates an item
func (c *Client) AddItem(ctx context.Context, req domain.ItemRequest) (*domain.Item, error) {
	var item domain.Item
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&item).
		Post("/inventory/create")
	if err := check(resp, err, "create item"); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item by code
func (c *Client) DeleteItem(ctx context.Context, itemCode string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("itemCode", itemCode).
		Delete("/inventory/{itemCode}")
	return check(resp, err, "delete item")
}

// GetAll lists every item
func (c *Client) GetAll(ctx context.Context) ([]domain.ItemResponse, error) {
	return c.list(ctx, "/inventory/all", nil, "list items")
}

// GetItem fetches one item. An unknown code yields the zero response.
func (c *Client) GetItem(ctx context.Context, itemCode string) (domain.ItemResponse, error) {
	var item domain.ItemResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("itemCode", itemCode).
		SetResult(&item).
		Get("/inventory/{itemCode}")
	if err := check(resp, err, "get item"); err != nil {
		return domain.ItemResponse{}, err
	}
	return item, nil
}

// ChangeAmount sets the quantity of an item
func (c *Client) ChangeAmount(ctx context.Context, itemCode string, quantity int) (domain.ItemResponse, error) {
	var item domain.ItemResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"itemCode": itemCode,
			"quantity": strconv.Itoa(quantity),
		}).
		SetResult(&item).
		Put("/inventory/{itemCode}/{quantity}")
	if err := check(resp, err, "change amount"); err != nil {
		return domain.ItemResponse{}, err
	}
	return item, nil
}

// GetAllItemsInStock lists items with a positive quantity
func (c *Client) GetAllItemsInStock(ctx context.Context) ([]domain.ItemResponse, error) {
	return c.list(ctx, "/inventory/inStock", nil, "list in-stock items")
}

// IsInStockManyItems returns every requested item with its isInStock flag.
// Any unknown code fails the whole call with ErrItemNotFound.
func (c *Client) IsInStockManyItems(ctx context.Context, itemCodes []string) ([]domain.ItemResponse, error) {
	return c.list(ctx, "/inventory/isItemInStockManyItems", url.Values{"itemCodes": itemCodes}, "check stock")
}

// DecreaseQuantityManyItems takes every adjustment or none and returns the
// server's confirmation message
func (c *Client) DecreaseQuantityManyItems(ctx context.Context, adjustments []domain.StockAdjustment) (string, error) {
	params := url.Values{}
	for _, adj := range adjustments {
		params.Add("itemCodes", adj.ItemCode)
		params.Add("quantities", strconv.Itoa(adj.Amount))
	}

	var result struct {
		Message string `json:"message"`
	}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&result)
	if key, ok := ctx.Value(idempotencyKey{}).(string); ok && key != "" {
		req.SetHeader(idempotencyKeyHeader, key)
	}

	resp, err := req.Post("/inventory/decreaseQuantityManyItems")
	if err := check(resp, err, "decrease quantities"); err != nil {
		return "", err
	}
	return result.Message, nil
}

func (c *Client) list(ctx context.Context, path string, params url.Values, op string) ([]domain.ItemResponse, error) {
	items := make([]domain.ItemResponse, 0)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetResult(&items).
		Get(path)
	if err := check(resp, err, op); err != nil {
		return nil, err
	}
	return items, nil
}

// APIError is a non-2xx answer from the inventory API
type APIError struct {
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory api: %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	return newAPIError(resp)
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Message:    errorMessage(resp),
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		apiErr.err = domain.ErrItemNotFound
	case http.StatusConflict:
		if apiErr.Message == domain.ErrRequestInProgress.Error() {
			apiErr.err = domain.ErrRequestInProgress
		} else {
			apiErr.err = domain.ErrItemExists
		}
	case http.StatusBadRequest:
		// Rejected decrements name the item and end with this suffix
		if strings.HasSuffix(apiErr.Message, "in the inventory") {
			apiErr.err = domain.ErrInsufficientStock
		} else {
			apiErr.err = domain.ErrValidation
		}
	default:
		apiErr.err = errors.New(http.StatusText(resp.StatusCode()))
	}

	return apiErr
}

func errorMessage(resp *resty.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(resp.Body()))
}
