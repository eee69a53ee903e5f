// internal/handlers/middleware/middleware.go
package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ammerola/inventory-service/internal/pkg/logger"
)

const tracerName = "github.com/ammerola/inventory-service/internal/handlers/middleware"

// Chain applies middlewares so that the first one listed runs first
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID to each request, reusing the one
// sent in header when present
func RequestID(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = "X-Request-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(header)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := logger.WithRequestID(r.Context(), requestID)
			w.Header().Set(header, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RouteResolver reports the pattern a request will be routed to.
// *http.ServeMux satisfies it.
type RouteResolver interface {
	Handler(r *http.Request) (h http.Handler, pattern string)
}

// Tracing starts a server span per request, continuing any trace carried
// in the W3C headers. The span is named after the route routes resolves.
func Tracing(routes RouteResolver) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			name := "HTTP " + r.Method
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.URLPath(r.URL.Path),
				attribute.String("client.address", getClientIP(r)),
			}
			if routes != nil {
				if _, pattern := routes.Handler(r); pattern != "" {
					name = pattern
					attrs = append(attrs, semconv.HTTPRoute(pattern))
				}
			}

			ctx, span := tracer.Start(ctx, name,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPResponseStatusCode(wrapped.statusCode))
			if wrapped.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			}
		})
	}
}

// Logger logs the start and completion of every request
func Logger(l *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			clientIP := getClientIP(r)

			ctx := r.Context()
			ctx = context.WithValue(ctx, logger.ContextKeyClientIP, clientIP)
			ctx = context.WithValue(ctx, logger.ContextKeyMethod, r.Method)
			ctx = context.WithValue(ctx, logger.ContextKeyPath, r.URL.Path)

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			l.DebugContext(ctx, "request_started",
				slog.Group("request",
					slog.String("query", r.URL.RawQuery),
					slog.String("user_agent", r.UserAgent()),
					slog.Int64("content_length", r.ContentLength),
				),
			)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)

			logLevel := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				logLevel = slog.LevelError
			case wrapped.statusCode >= 400, duration > 5*time.Second:
				logLevel = slog.LevelWarn
			}

			l.Log(ctx, logLevel, "request_completed",
				slog.Group("response",
					slog.Int("status", wrapped.statusCode),
					slog.Int("bytes", wrapped.bytesWritten),
					slog.Duration("duration", duration),
				),
				slog.Bool("slow_request", duration > 5*time.Second),
			)
		})
	}
}

// Recovery recovers from panics
func Recovery(slogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					requestID := logger.RequestIDFromContext(r.Context())

					slogger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", err),
						slog.String("request_id", requestID),
						slog.String("stack", string(debug.Stack())),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error":"Internal server error","request_id":"` + requestID + `"}`))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter limits requests per client IP
type RateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

// NewRateLimiter allows requests per window with the given burst.
// Limiters idle longer than 10 minutes are dropped by Cleanup.
func NewRateLimiter(requests int, window time.Duration, burst int) *RateLimiter {
	if burst <= 0 {
		burst = requests
	}
	return &RateLimiter{
		limit: rate.Every(window / time.Duration(requests)),
		burst: burst,
		idle:  10 * time.Minute,
	}
}

// Cleanup evicts idle limiters until ctx is done
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.limiters.Range(func(key, value any) bool {
				if now.Sub(value.(*clientLimiter).seen()) > rl.idle {
					rl.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)

		val, _ := rl.limiters.LoadOrStore(ip, &clientLimiter{
			limiter: rate.NewLimiter(rl.limit, rl.burst),
		})
		cl := val.(*clientLimiter)
		cl.touch()

		if !cl.limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CORS handles Cross-Origin Resource Sharing
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			wildcard := false
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" {
					wildcard = true
					allowed = true
					break
				}
				if allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if origin != "" && allowed {
				if wildcard {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Idempotency-Key, X-Request-ID, traceparent")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeaders adds security headers
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// Timeout bounds each request. The handler's context is cancelled at the
// deadline and the client gets 503.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.TimeoutHandler(next, timeout, `{"error":"Request timeout"}`)
	}
}

// Helper types and functions

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	written      bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (c *clientLimiter) touch() {
	c.mu.Lock()
	c.lastSeen = time.Now()
	c.mu.Unlock()
}

func (c *clientLimiter) seen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}

	return r.RemoteAddr
}
