// internal/adapters/storage/local.go
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ammerola/inventory-service/internal/core/ports"
)

// LocalStorage keeps snapshots on the local filesystem, for development
// without S3
type LocalStorage struct {
	basePath string
	logger   *slog.Logger
}

var _ ports.SnapshotStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new local storage client
func NewLocalStorage(basePath string, logger *slog.Logger) *LocalStorage {
	return &LocalStorage{
		basePath: basePath,
		logger:   logger.With(slog.String("storage", "local")),
	}
}

// Upload writes data to basePath/key and returns a file:// location
func (l *LocalStorage) Upload(ctx context.Context, key string, data []byte, _ string) (string, error) {
	path := filepath.Join(l.basePath, filepath.FromSlash(key))

	rel, err := filepath.Rel(l.basePath, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes the storage directory", key)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	l.logger.InfoContext(ctx, "file stored",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return "file://" + filepath.ToSlash(path), nil
}
