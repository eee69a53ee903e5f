// internal/pkg/logger/handlers.go
package logger

import (
	"context"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ContextHandler adds request-scoped values and the active span to records
type ContextHandler struct {
	handler slog.Handler
}

func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	attrs := extractContextAttrs(ctx)

	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			attrs = append(attrs,
				slog.String(string(ContextKeyTraceID), sc.TraceID().String()),
				slog.String(string(ContextKeySpanID), sc.SpanID().String()),
			)
		}
	}

	if len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}

	return h.handler.Handle(ctx, record)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// SamplingHandler drops a share of debug and info records
type SamplingHandler struct {
	handler    slog.Handler
	sampleRate float64
	mu         *sync.Mutex
	rng        *rand.Rand
}

func NewSamplingHandler(handler slog.Handler, sampleRate float64) *SamplingHandler {
	return &SamplingHandler{
		handler:    handler,
		sampleRate: sampleRate,
		mu:         &sync.Mutex{},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *SamplingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Warnings and errors are never sampled
	if level >= slog.LevelWarn {
		return h.handler.Enabled(ctx, level)
	}

	h.mu.Lock()
	sample := h.rng.Float64() < h.sampleRate
	h.mu.Unlock()

	return sample && h.handler.Enabled(ctx, level)
}

func (h *SamplingHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.handler.Handle(ctx, record)
}

func (h *SamplingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SamplingHandler{
		handler:    h.handler.WithAttrs(attrs),
		sampleRate: h.sampleRate,
		mu:         h.mu,
		rng:        h.rng,
	}
}

func (h *SamplingHandler) WithGroup(name string) slog.Handler {
	return &SamplingHandler{
		handler:    h.handler.WithGroup(name),
		sampleRate: h.sampleRate,
		mu:         h.mu,
		rng:        h.rng,
	}
}

const redacted = "***REDACTED***"

// SanitizationHandler masks credentials in messages and attributes
type SanitizationHandler struct {
	handler   slog.Handler
	patterns  []*regexp.Regexp
	blacklist []string
}

func NewSanitizationHandler(handler slog.Handler) *SanitizationHandler {
	return &SanitizationHandler{
		handler: handler,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(password|pwd|secret|token|api[-_]?key)\s*[:=]\s*["']?([^"'\s]+)`),
			regexp.MustCompile(`(?i)(bearer)\s+([A-Za-z0-9\-._~+/]+=*)`),
		},
		blacklist: []string{
			"password", "pwd", "secret", "token", "authorization", "api_key", "access_key",
		},
	}
}

func (h *SanitizationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *SanitizationHandler) Handle(ctx context.Context, record slog.Record) error {
	sanitized := slog.NewRecord(record.Time, record.Level, h.sanitizeString(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})

	return h.handler.Handle(ctx, sanitized)
}

func (h *SanitizationHandler) sanitizeAttr(attr slog.Attr) slog.Attr {
	lowerKey := strings.ToLower(attr.Key)
	for _, blacklisted := range h.blacklist {
		if strings.Contains(lowerKey, blacklisted) {
			return slog.String(attr.Key, redacted)
		}
	}

	switch attr.Value.Kind() {
	case slog.KindString:
		attr.Value = slog.StringValue(h.sanitizeString(attr.Value.String()))
	case slog.KindGroup:
		group := attr.Value.Group()
		cleaned := make([]any, 0, len(group))
		for _, a := range group {
			cleaned = append(cleaned, h.sanitizeAttr(a))
		}
		return slog.Group(attr.Key, cleaned...)
	}

	return attr
}

func (h *SanitizationHandler) sanitizeString(s string) string {
	for _, pattern := range h.patterns {
		s = pattern.ReplaceAllString(s, "$1="+redacted)
	}
	return s
}

func (h *SanitizationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	cleaned := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		cleaned[i] = h.sanitizeAttr(a)
	}
	return &SanitizationHandler{
		handler:   h.handler.WithAttrs(cleaned),
		patterns:  h.patterns,
		blacklist: h.blacklist,
	}
}

func (h *SanitizationHandler) WithGroup(name string) slog.Handler {
	return &SanitizationHandler{
		handler:   h.handler.WithGroup(name),
		patterns:  h.patterns,
		blacklist: h.blacklist,
	}
}
