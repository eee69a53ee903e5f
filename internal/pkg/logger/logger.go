// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey represents keys for context values
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyTraceID   ContextKey = "trace_id"
	ContextKeySpanID    ContextKey = "span_id"
	ContextKeyClientIP  ContextKey = "client_ip"
	ContextKeyMethod    ContextKey = "method"
	ContextKeyPath      ContextKey = "path"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level          string
	Format         string
	Output         io.Writer
	AddSource      bool
	SampleRate     float64
	Environment    string
	ServiceName    string
	ServiceVersion string
}

// Logger wraps slog.Logger with context-aware helpers
type Logger struct {
	*slog.Logger
	config *LogConfig
}

// SetupLogger builds the process logger and installs it as the slog default
func SetupLogger(config *LogConfig) *Logger {
	l := NewLogger(config)
	slog.SetDefault(l.Logger)
	return l
}

// NewLogger creates a logger from config. The handler chain is
// sanitization -> sampling -> context -> json/text.
func NewLogger(config *LogConfig) *Logger {
	if config == nil {
		config = &LogConfig{Level: "info", Format: "json"}
	}
	if config.Output == nil {
		config.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(config.Level),
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return replaceAttr(config, groups, a)
		},
	}

	var handler slog.Handler
	switch config.Format {
	case "text":
		handler = slog.NewTextHandler(config.Output, opts)
	default:
		handler = slog.NewJSONHandler(config.Output, opts)
	}

	handler = NewContextHandler(handler)

	if config.SampleRate > 0 && config.SampleRate < 1.0 {
		handler = NewSamplingHandler(handler, config.SampleRate)
	}

	handler = NewSanitizationHandler(handler)

	attrs := make([]slog.Attr, 0, 3)
	if config.ServiceName != "" {
		attrs = append(attrs, slog.String("service_name", config.ServiceName))
	}
	if config.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", config.ServiceVersion))
	}
	if config.Environment != "" {
		attrs = append(attrs, slog.String("env", config.Environment))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: config,
	}
}

// WithRequestID stores the request id for downstream log records
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext returns the request id or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}

// ParseLevel maps a config string to a slog level; unknown values mean info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func contextKeys() []ContextKey {
	return []ContextKey{
		ContextKeyRequestID,
		ContextKeyTraceID,
		ContextKeySpanID,
		ContextKeyClientIP,
		ContextKeyMethod,
		ContextKeyPath,
	}
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, key := range contextKeys() {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

func replaceAttr(config *LogConfig, _ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
		}
	}

	// Cloud log collectors key on "severity"
	if a.Key == slog.LevelKey && config.Format != "text" {
		a.Key = "severity"
	}

	if strings.HasSuffix(a.Key, "_ms") {
		if d, ok := a.Value.Any().(time.Duration); ok {
			a.Value = slog.Float64Value(float64(d.Microseconds()) / 1000)
		}
	}

	return a
}
