// Package convert holds the row-level date and time transforms: parsing the
// scraped date fragment, composing a zone-aware timestamp and splitting the
// converted timestamp back into calendar columns. None of them panic or
// return errors for bad input; failures are values.
package convert

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/valpere/calrefine/internal/table"
)

// InvalidDate replaces a date fragment that could not be parsed.
const InvalidDate = "Invalid Date"

var months = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// ParseDateFragment turns a "weekday month day" fragment such as
// "Mon Jan 5" into the canonical "M-D" form ("1-5"). "N/A" passes through;
// anything malformed becomes InvalidDate.
func ParseDateFragment(s string) string {
	if s == table.NotAvailable {
		return s
	}

	tokens := strings.Fields(s)
	if len(tokens) != 3 {
		return InvalidDate
	}

	month, ok := months[cases.Title(language.English).String(tokens[1])]
	if !ok {
		return InvalidDate
	}
	day, err := strconv.Atoi(tokens[2])
	if err != nil {
		return InvalidDate
	}

	return fmt.Sprintf("%d-%d", month, day)
}

// NormalizeDate applies ParseDateFragment to a nullable cell. Absent values
// stay absent.
func NormalizeDate(v table.NullString) table.NullString {
	if !v.Valid {
		return v
	}
	return table.String(ParseDateFragment(v.Value))
}

// IsSentinel reports whether v is a placeholder rather than a real value.
func IsSentinel(v table.NullString) bool {
	return !v.Valid || v.Value == table.NotAvailable || v.Value == InvalidDate
}
