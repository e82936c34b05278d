package convert

import (
	"strings"
	"time"

	"github.com/valpere/calrefine/internal/table"
)

// Parts is a converted timestamp decomposed into calendar columns. All three
// are absent when the conversion failed.
type Parts struct {
	Year table.NullInt
	Date table.NullString
	Time table.NullString
}

// OK reports whether the parts carry a value.
func (p Parts) OK() bool {
	return p.Year.Valid
}

// Split decomposes a composed timestamp into year, "01-02" date and
// "03:04 PM" time. Conversion errors, "N/A" and anything not matching the
// converted layout give all-absent parts.
func Split(s string) Parts {
	if strings.Contains(s, strings.TrimSuffix(ErrorPrefix, ": ")) || s == table.NotAvailable {
		return Parts{}
	}

	t, err := time.Parse(convertedLayout, s)
	if err != nil {
		return Parts{}
	}

	return Parts{
		Year: table.Int(t.Year()),
		Date: table.String(t.Format("01-02")),
		Time: table.String(t.Format("03:04 PM")),
	}
}

// SplitResult is Split for a typed composition outcome.
func SplitResult(r Result) Parts {
	if !r.OK() {
		return Parts{}
	}
	return Split(r.Converted)
}
