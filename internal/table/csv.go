package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoHeader is returned when the input has no header record.
var ErrNoHeader = errors.New("CSV file is empty")

// Read decodes a calendar CSV. Empty year/date/time cells become absent
// values; all other cells are kept verbatim.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	t := &Table{Columns: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := Row{Cells: make(map[string]string, len(header))}
		for i, col := range header {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			switch col {
			case ColYear:
				row.YearText = cell
				row.Year = ParseYear(cell)
			case ColDate:
				row.Date = nullable(cell)
			case ColTime:
				row.Time = nullable(cell)
			case ColEvent:
				row.Event = cell
			default:
				row.Cells[col] = cell
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// ReadFile opens path and decodes it with Read.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input CSV: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Write encodes the table with its original column order.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			switch col {
			case ColYear:
				rec[i] = row.Year.Text()
			case ColDate:
				rec[i] = row.Date.Text()
			case ColTime:
				rec[i] = row.Time.Text()
			case ColEvent:
				rec[i] = row.Event
			default:
				rec[i] = row.Cells[col]
			}
		}
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush output CSV: %w", err)
	}
	return nil
}

// WriteFile creates path (and its directory) and writes the table into it.
func (t *Table) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func nullable(cell string) NullString {
	if strings.TrimSpace(cell) == "" {
		return NullString{}
	}
	return String(cell)
}
