// internal/workers/asynq.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

// ErrorHandler logs tasks that failed an attempt
func ErrorHandler(logger *slog.Logger) asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.ErrorContext(ctx, "task processing failed",
			slog.String("type", task.Type()),
			slog.Int("retry", retried),
			slog.Int("max_retry", maxRetry),
			slog.Any("error", err))
	})
}

// RetryDelay backs off exponentially from one second, capped at ten minutes
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	const (
		baseDelay = time.Second
		maxDelay  = 10 * time.Minute
	)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// AsynqLogger adapts slog for Asynq
type AsynqLogger struct {
	logger *slog.Logger
}

var _ asynq.Logger = (*AsynqLogger)(nil)

func NewAsynqLogger(logger *slog.Logger) *AsynqLogger {
	return &AsynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *AsynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *AsynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
