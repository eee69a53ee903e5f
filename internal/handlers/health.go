// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/inventory-service/internal/core/ports"
	"github.com/ammerola/inventory-service/internal/pkg/config"
)

// QueueInspector is the part of *asynq.Inspector used by health checks
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db        ports.Database
	redis     Pinger
	asynq     QueueInspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. redisPinger and inspector
// are optional.
func NewHealthHandler(
	database ports.Database,
	redisPinger Pinger,
	inspector QueueInspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		redis:     redisPinger,
		asynq:     inspector,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// RegisterRoutes mounts the probe endpoints
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Readiness)
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	ResponseTime string         `json:"response_time,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    make(map[string]ServiceInfo),
		System:      h.getSystemInfo(),
	}

	checks := map[string]func(context.Context) ServiceInfo{
		"database": h.checkDatabase,
	}
	if h.redis != nil {
		checks["redis"] = h.checkRedis
	}
	if h.asynq != nil {
		checks["asynq"] = h.checkAsynq
	}

	for name, check := range checks {
		info := check(ctx)
		health.Services[name] = info
		if info.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	h.respond(ctx, w, statusCode, health)
}

// Readiness handles the /ready endpoint
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)

	mark := func(name string, err error) {
		if err != nil {
			ready = false
			details[name] = "not ready"
			return
		}
		details[name] = "ready"
	}

	mark("database", h.db.Ping(ctx))
	if h.redis != nil {
		mark("redis", h.redis.Ping(ctx))
	}
	if h.asynq != nil {
		_, err := h.asynq.Queues()
		mark("asynq", err)
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	h.respond(ctx, w, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) respond(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.Any("error", err))
	}
}

// checkDatabase checks the health of the database connection
func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]any),
	}

	if err := h.db.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.Any("error", err))
		return info
	}

	for k, v := range h.db.Health(ctx) {
		info.Details[k] = v
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkRedis checks the health of the Redis connection
func (h *HealthHandler) checkRedis(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy"}

	if err := h.redis.Ping(ctx); err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.Any("error", err))
		return info
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// checkAsynq checks the health of the Asynq queue system
func (h *HealthHandler) checkAsynq(ctx context.Context) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{
		Status:  "healthy",
		Details: make(map[string]any),
	}

	queues, err := h.asynq.Queues()
	if err != nil {
		info.Status = "unhealthy"
		info.Message = err.Error()
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.Any("error", err))
		return info
	}

	queueStats := make(map[string]any)
	for _, queue := range queues {
		qInfo, err := h.asynq.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		queueStats[queue] = map[string]any{
			"size":      qInfo.Size,
			"active":    qInfo.Active,
			"pending":   qInfo.Pending,
			"scheduled": qInfo.Scheduled,
			"retry":     qInfo.Retry,
			"archived":  qInfo.Archived,
		}
	}
	info.Details["queues"] = queueStats

	if servers, err := h.asynq.Servers(); err == nil {
		info.Details["servers"] = len(servers)
	}

	info.ResponseTime = time.Since(start).String()
	return info
}

// getSystemInfo returns system-level information
func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemoryAllocMB: memStats.Alloc / 1024 / 1024,
		NumGC:         memStats.NumGC,
	}
}
