package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/inventory-service/internal/core/domain"
)

// record is one itemCode/quantity pair of a seed file
type record struct {
	ItemCode string `json:"itemCode"`
	Quantity int    `json:"quantity"`
}

func (r record) request() domain.ItemRequest {
	quantity := r.Quantity
	return domain.ItemRequest{ItemCode: r.ItemCode, Quantity: &quantity}
}

// LoadRecords reads a .csv, .json or .xlsx seed file
func LoadRecords(path string) ([]domain.ItemRequest, error) {
	var (
		records []record
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = loadCSV(path)
	case ".json":
		records, err = loadJSON(path)
	case ".xlsx":
		records, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported seed file %s: want .csv, .json or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}

	requests := make([]domain.ItemRequest, 0, len(records))
	for _, r := range records {
		requests = append(requests, r.request())
	}
	return requests, nil
}

func loadCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		r, err := parseRow(row)
		if err != nil {
			// Header row
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if r.ItemCode == "" {
			continue
		}
		records = append(records, r)
	}

	return records, nil
}

func loadJSON(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func loadXLSX(path string) ([]record, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}

	var records []record
	rowIdx := 0
	err = file.Sheets[0].ForEachRow(func(row *xlsx.Row) error {
		rowIdx++

		get := func(i int) string {
			c := row.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		r, err := parseRow([]string{get(0), get(1)})
		if err != nil {
			if rowIdx == 1 {
				return nil
			}
			return fmt.Errorf("row %d: %w", rowIdx, err)
		}
		if r.ItemCode != "" {
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return records, nil
}

func parseRow(row []string) (record, error) {
	if len(row) < 2 {
		return record{}, fmt.Errorf("want itemCode,quantity, got %d columns", len(row))
	}

	code := strings.TrimSpace(row[0])
	raw := strings.TrimSpace(row[1])
	if code == "" && raw == "" {
		return record{}, nil
	}

	quantity, err := strconv.Atoi(raw)
	if err != nil {
		return record{}, fmt.Errorf("quantity %q is not an integer", raw)
	}

	return record{ItemCode: code, Quantity: quantity}, nil
}
