package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"heatmap/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// --- 1. DISPATCH ---

// LoadFile reads a dataset file. The format follows the extension:
// .json (array of records), .csv or .xlsx (header row names the fields).
func LoadFile(path string) ([]models.Record, error) {
	start := time.Now()

	var (
		records []models.Record
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		records, err = loadJSON(path)
	case ".csv":
		records, err = loadCSV(path)
	case ".xlsx":
		records, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(records)).
		Dur("took", time.Since(start)).
		Msg("dataset loaded")
	return records, nil
}

// --- 2. FORMATS ---

func loadJSON(path string) ([]models.Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.Record
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

func loadCSV(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if rec, ok := rowToRecord(header, row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func loadXLSX(path string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, err
	}
	records := make([]models.Record, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}

	header := rows[0]
	for _, row := range rows[1:] {
		if rec, ok := rowToRecord(header, row); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// rowToRecord maps cells onto header names; blank rows are skipped.
// Short rows leave the trailing fields absent.
func rowToRecord(header, row []string) (models.Record, bool) {
	blank := true
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			blank = false
			break
		}
	}
	if blank {
		return models.Record{}, false
	}

	var rec models.Record
	for i, name := range header {
		if i >= len(row) {
			break
		}
		rec.SetField(strings.TrimSpace(name), strings.TrimSpace(row[i]))
	}
	return rec, true
}
