// internal/core/services/snapshot.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-service/internal/core/domain"
	"github.com/ammerola/inventory-service/internal/core/ports"
)

const snapshotSheet = "Inventory"

var snapshotHeaders = []string{"Item Code", "Quantity", "In Stock"}

// SnapshotService renders all items into an XLSX workbook
type SnapshotService struct {
	repo    ports.ItemRepository
	storage ports.SnapshotStorage
	prefix  string
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.SnapshotService = (*SnapshotService)(nil)

// NewSnapshotService creates a snapshot service. storage may be nil when
// only Generate is used.
func NewSnapshotService(repo ports.ItemRepository, storage ports.SnapshotStorage, prefix string, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		repo:    repo,
		storage: storage,
		prefix:  prefix,
		logger:  logger.With(slog.String("service", "snapshot")),
		now:     time.Now,
	}
}

// Generate builds the workbook in memory
func (s *SnapshotService) Generate(ctx context.Context) (*domain.Snapshot, error) {
	items, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	generatedAt := s.now().UTC()

	data, err := encodeSnapshot(items, generatedAt)
	if err != nil {
		return nil, err
	}

	inStock := 0
	for i := range items {
		if items[i].InStock() {
			inStock++
		}
	}

	return &domain.Snapshot{
		ItemCount:   len(items),
		InStock:     inStock,
		GeneratedAt: generatedAt,
		Data:        data,
	}, nil
}

// Publish generates a snapshot and uploads it under prefix/YYYY/MM/DD/
func (s *SnapshotService) Publish(ctx context.Context) (*domain.Snapshot, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}

	snap, err := s.Generate(ctx)
	if err != nil {
		return nil, err
	}

	snap.Key = domain.SnapshotKey(s.prefix, snap.GeneratedAt)

	location, err := s.storage.Upload(ctx, snap.Key, snap.Data, domain.SnapshotContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}
	snap.Location = location

	s.logger.InfoContext(ctx, "snapshot published",
		slog.String("key", snap.Key),
		slog.Int("items", snap.ItemCount),
		slog.Int("in_stock", snap.InStock))

	return snap, nil
}

func encodeSnapshot(items []domain.Item, generatedAt time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(snapshotSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range snapshotHeaders {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for i := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(items[i].ItemCode)
		row.AddCell().SetInt(items[i].Quantity)
		row.AddCell().SetBool(items[i].InStock())
	}

	footer := sheet.AddRow()
	footer.AddCell().SetString("Generated at")
	footer.AddCell().SetString(generatedAt.Format(time.RFC3339))

	sheet.SetColWidth(1, len(snapshotHeaders), 15)

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}
