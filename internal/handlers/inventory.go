// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

// IdempotencyKeyHeader makes a bulk decrease safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// InventoryHandler handles inventory-related HTTP requests
type InventoryHandler struct {
	service        ports.InventoryService
	idempotency    ports.IdempotencyStore
	idempotencyTTL time.Duration
	logger         *slog.Logger
}

// NewInventoryHandler creates a new inventory handler. idempotency may be
// nil, in which case the Idempotency-Key header is ignored.
func NewInventoryHandler(service ports.InventoryService, idempotency ports.IdempotencyStore, idempotencyTTL time.Duration, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:        service,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         logger.With(slog.String("handler", "inventory")),
	}
}

// RegisterRoutes mounts the handler under /inventory
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /inventory/create", h.CreateItem)
	mux.HandleFunc("GET /inventory/all", h.GetAll)
	mux.HandleFunc("GET /inventory/inStock", h.GetAllInStock)
	mux.HandleFunc("GET /inventory/isItemInStockManyItems", h.IsInStockManyItems)
	mux.HandleFunc("POST /inventory/decreaseQuantityManyItems", h.DecreaseQuantityManyItems)
	mux.HandleFunc("GET /inventory/{itemCode}", h.GetItem)
	mux.HandleFunc("DELETE /inventory/{itemCode}", h.DeleteItem)
	mux.HandleFunc("PUT /inventory/{itemCode}/{quantity}", h.ChangeAmount)
}

// CreateItem handles POST /inventory/create
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		h.handleServiceError(w, r, err, "invalid create request")
		return
	}

	item, err := h.service.AddItem(ctx, req)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to create item")
		return
	}

	h.respondJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /inventory/{itemCode}
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemCode := r.PathValue("itemCode")

	if err := h.service.DeleteItem(r.Context(), itemCode); err != nil {
		h.handleServiceError(w, r, err, "failed to delete item")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// GetAll handles GET /inventory/all
func (h *InventoryHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetAll(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "failed to list items")
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

// GetItem handles GET /inventory/{itemCode}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), r.PathValue("itemCode"))
	if err != nil {
		h.handleServiceError(w, r, err, "failed to get item")
		return
	}

	h.respondJSON(w, http.StatusOK, item)
}

// ChangeAmount handles PUT /inventory/{itemCode}/{quantity}
func (h *InventoryHandler) ChangeAmount(w http.ResponseWriter, r *http.Request) {
	itemCode := r.PathValue("itemCode")

	quantity, err := strconv.ParseInt(r.PathValue("quantity"), 10, 32)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "quantity must be a 32-bit integer")
		return
	}

	item, err := h.service.ChangeAmount(r.Context(), itemCode, int(quantity))
	if err != nil {
		h.handleServiceError(w, r, err, "failed to change quantity")
		return
	}

	h.respondJSON(w, http.StatusOK, item)
}

// GetAllInStock handles GET /inventory/inStock
func (h *InventoryHandler) GetAllInStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetAllItemsInStock(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "failed to list items in stock")
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

// IsInStockManyItems handles GET /inventory/isItemInStockManyItems?itemCodes=a,b
func (h *InventoryHandler) IsInStockManyItems(w http.ResponseWriter, r *http.Request) {
	codes := parseListParam(r, "itemCodes")

	items, err := h.service.IsInStockManyItems(r.Context(), codes)
	if err != nil {
		h.handleServiceError(w, r, err, "failed to check stock")
		return
	}

	h.respondJSON(w, http.StatusOK, items)
}

// DecreaseQuantityManyItems handles
// POST /inventory/decreaseQuantityManyItems?itemCodes=a,b&quantities=1,2
func (h *InventoryHandler) DecreaseQuantityManyItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key != "" && h.idempotency != nil {
		stored, err := h.idempotency.Claim(ctx, key, h.idempotencyTTL)
		switch {
		case errors.Is(err, domain.ErrRequestInProgress):
			h.respondError(w, http.StatusConflict, err.Error())
			return
		case err != nil:
			// Redis trouble must not block stock updates; run without replay protection
			h.logger.WarnContext(ctx, "idempotency store unavailable",
				slog.Any("error", err))
			key = ""
		case stored != nil:
			h.logger.InfoContext(ctx, "replaying idempotent response",
				slog.String("idempotency_key", key))
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	} else {
		key = ""
	}

	status, body := h.decrease(r)

	if key != "" {
		if status == http.StatusOK {
			resp := ports.StoredResponse{StatusCode: status, Body: body}
			if err := h.idempotency.Complete(ctx, key, resp, h.idempotencyTTL); err != nil {
				h.logger.WarnContext(ctx, "failed to store idempotent response",
					slog.Any("error", err),
					slog.String("idempotency_key", key))
			}
		} else if err := h.idempotency.Release(ctx, key); err != nil {
			h.logger.WarnContext(ctx, "failed to release idempotency key",
				slog.Any("error", err),
				slog.String("idempotency_key", key))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decrease runs the bulk decrement and renders the response without writing it
func (h *InventoryHandler) decrease(r *http.Request) (int, []byte) {
	codes := parseListParam(r, "itemCodes")

	amounts, err := parseIntList(splitListParam(r, "quantities"))
	if err != nil {
		return http.StatusBadRequest, h.encode(errorBody(err.Error()))
	}

	adjustments, err := domain.NewStockAdjustments(codes, amounts)
	if err != nil {
		return http.StatusBadRequest, h.encode(errorBody(err.Error()))
	}

	msg, err := h.service.DecreaseQuantityManyItems(r.Context(), adjustments)
	if err != nil {
		status, message := h.classify(r, err, "failed to decrease quantities")
		return status, h.encode(errorBody(message))
	}

	return http.StatusOK, h.encode(map[string]string{"message": msg})
}

// Helper methods

// classify maps a service error to a status code and a client-safe message
func (h *InventoryHandler) classify(r *http.Request, err error, logMsg string) (int, string) {
	var stockErr *domain.StockError
	switch {
	case errors.As(err, &stockErr):
		if stockErr.Kind == domain.StockUnknownItem {
			return http.StatusNotFound, stockErr.Error()
		}
		return http.StatusBadRequest, stockErr.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrItemExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrRequestInProgress):
		return http.StatusConflict, err.Error()
	}

	h.logger.ErrorContext(r.Context(), logMsg,
		slog.Any("error", err),
		slog.String("path", r.URL.Path))
	return http.StatusInternalServerError, "Internal server error"
}

func (h *InventoryHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	status, message := h.classify(r, err, logMsg)
	h.respondError(w, status, message)
}

func (h *InventoryHandler) encode(data any) []byte {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
		return []byte(`{"error":"Internal server error"}`)
	}
	return append(body, '\n')
}

func (h *InventoryHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.Any("error", err))
	}
}

func (h *InventoryHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorBody(message))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

// parseListParam accepts repeated keys, comma separated values, or both.
// Blank parts are dropped.
func parseListParam(r *http.Request, key string) []string {
	var out []string
	for _, part := range splitListParam(r, key) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// splitListParam is parseListParam keeping blank parts in place
func splitListParam(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}

func parseIntList(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		if v == "" {
			return nil, domain.NewValidationError("quantities", fmt.Sprintf("quantity at position %d is empty", i+1))
		}
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, domain.NewValidationError("quantities", fmt.Sprintf("quantity %q is not a 32-bit integer", v))
		}
		out[i] = int(n)
	}
	return out, nil
}
