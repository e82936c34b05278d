// Package cleaner prepares a freshly scraped calendar table for refinement
// without touching its date/time semantics.
//
// It runs before any conversion, on a copy of the scraped table.
package cleaner

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/calrefine/internal/table"
)

// Clean returns a cleaned copy of t in three phases:
//  1. Required column check
//  2. Text normalization (trim + Unicode NFC)
//  3. Blank cell replacement with "N/A"
//
// When required columns are missing the missing names are logged and an
// empty table is returned; callers check Empty() and stop.
func Clean(t *table.Table, log logrus.FieldLogger) *table.Table {
	if missing := t.Missing(table.RequiredColumns); len(missing) > 0 {
		log.WithField("missing", missing).Error("Missing columns in data")
		return &table.Table{}
	}

	out := &table.Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]table.Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = cleanRow(r)
	}

	log.WithField("rows", out.Len()).Info("Basic data cleaning completed successfully")
	return out
}

func cleanRow(r table.Row) table.Row {
	c := table.Row{
		Year:     r.Year,
		Date:     fillBlank(r.Date),
		Time:     fillBlank(r.Time),
		Event:    orNotAvailable(normalize(r.Event)),
		YearText: r.YearText,
		Cells:    make(map[string]string, len(r.Cells)),
	}
	for k, v := range r.Cells {
		c.Cells[k] = orNotAvailable(normalize(v))
	}
	return c
}

// --- Phase 2: text normalization ---

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// --- Phase 3: blank replacement ---

func fillBlank(v table.NullString) table.NullString {
	if !v.Valid {
		return table.String(table.NotAvailable)
	}
	return table.String(orNotAvailable(normalize(v.Value)))
}

func orNotAvailable(s string) string {
	if s == "" {
		return table.NotAvailable
	}
	return s
}
