// Package table holds the in-memory economic-calendar table and its CSV
// encoding. Rows keep the order they were read in; every later stage relies
// on that order.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Column names of the scraped calendar schema.
const (
	ColYear     = "year"
	ColDate     = "date"
	ColTime     = "time"
	ColCurrency = "currency"
	ColImpact   = "impact"
	ColEvent    = "event"
	ColActual   = "actual"
	ColForecast = "forecast"
	ColPrevious = "previous"
)

// RequiredColumns lists the columns every calendar CSV must carry.
var RequiredColumns = []string{
	ColYear, ColDate, ColTime, ColCurrency, ColImpact,
	ColEvent, ColActual, ColForecast, ColPrevious,
}

// NotAvailable is the placeholder the scraper and the cleaner use for an
// intentionally empty cell.
const NotAvailable = "N/A"

// NullInt is an integer that may be absent.
type NullInt struct {
	Value int
	Valid bool
}

// Int returns a present NullInt.
func Int(v int) NullInt {
	return NullInt{Value: v, Valid: true}
}

// Text renders the value for CSV output; absent values render empty.
func (n NullInt) Text() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Value)
}

// NullString is a string that may be absent. An absent value is different
// from the "N/A" placeholder, which is a present string.
type NullString struct {
	Value string
	Valid bool
}

// String returns a present NullString.
func String(s string) NullString {
	return NullString{Value: s, Valid: true}
}

// Text renders the value for CSV output; absent values render empty.
func (n NullString) Text() string {
	if !n.Valid {
		return ""
	}
	return n.Value
}

// Row is one calendar announcement.
type Row struct {
	Year  NullInt
	Date  NullString
	Time  NullString
	Event string

	// YearText is the year cell exactly as it was read.
	YearText string

	// Cells holds every other column (currency, impact, actual, ...) by name.
	Cells map[string]string
}

// Cell returns the raw value of a passthrough column.
func (r Row) Cell(col string) string {
	return r.Cells[col]
}

// Table is an ordered sequence of rows sharing one header.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the header contains col.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Missing returns the required columns absent from the header, in the order
// they were requested.
func (t *Table) Missing(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// ParseYear coerces a year cell to a strict integer. Integral floats such as
// "2022.0" are accepted; anything else, including "N/A", is absent.
func ParseYear(raw string) NullInt {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullInt{}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Int(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return NullInt{}
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return NullInt{}
	}
	return Int(int(f))
}
