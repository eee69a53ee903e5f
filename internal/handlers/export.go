// internal/handlers/export.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	redis_a "github.com/ammerola/inventory-service/internal/adapters/redis_adapter"
	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

// cachedExport is the JSON form of a rendered spreadsheet kept in Redis
type cachedExport struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// ExportHandler serves the stock spreadsheet
type ExportHandler struct {
	snapshots ports.SnapshotService
	cache     ports.CacheRepository
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewExportHandler creates a new export handler. A nil cache or a
// non-positive TTL renders the spreadsheet on every request.
func NewExportHandler(snapshots ports.SnapshotService, cache ports.CacheRepository, cacheTTL time.Duration, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		snapshots: snapshots,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With(slog.String("handler", "export")),
	}
}

// RegisterRoutes mounts the export endpoints
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /inventory/export/xlsx", h.ExportExcel)
}

// ExportExcel handles GET /inventory/export/xlsx
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cacheKey := redis_a.BuildKey(redis_a.PrefixSnapshot, "xlsx")

	if export, ok := h.fromCache(ctx, cacheKey); ok {
		h.logger.DebugContext(ctx, "export cache hit", slog.String("key", cacheKey))
		w.Header().Set("X-Cache", "HIT")
		h.writeFile(w, export)
		return
	}

	snapshot, err := h.snapshots.Generate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate snapshot",
			slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	export := cachedExport{Filename: snapshot.Filename(), Data: snapshot.Data}

	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.SetWithTTL(ctx, cacheKey, export, h.cacheTTL); err != nil {
			h.logger.WarnContext(ctx, "failed to cache export",
				slog.Any("error", err))
		}
	}

	h.logger.InfoContext(ctx, "export generated",
		slog.Int("items", snapshot.ItemCount),
		slog.Int("in_stock", snapshot.InStock),
		slog.Int("bytes", len(snapshot.Data)))

	w.Header().Set("X-Cache", "MISS")
	h.writeFile(w, export)
}

func (h *ExportHandler) fromCache(ctx context.Context, key string) (cachedExport, bool) {
	var export cachedExport
	if h.cache == nil || h.cacheTTL <= 0 {
		return export, false
	}

	if err := h.cache.Get(ctx, key, &export); err != nil {
		if !errors.Is(err, redis_a.ErrCacheMiss) {
			h.logger.WarnContext(ctx, "export cache unavailable",
				slog.Any("error", err))
		}
		return export, false
	}

	return export, len(export.Data) > 0
}

func (h *ExportHandler) writeFile(w http.ResponseWriter, export cachedExport) {
	w.Header().Set("Content-Type", domain.SnapshotContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(export.Data); err != nil {
		h.logger.Error("failed to write export", slog.Any("error", err))
	}
}

func (h *ExportHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorBody(message)); err != nil {
		h.logger.Error("failed to encode error response", slog.Any("error", err))
	}
}
