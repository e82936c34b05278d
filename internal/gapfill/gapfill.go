// Package gapfill repairs calendar rows whose year, date or time went
// missing, by carrying the last known value forward in table order.
//
// The scraped calendar prints a date once for a group of announcements, so
// carrying it forward rebuilds the grouping. A row whose own date was lost
// to a parse failure also inherits its neighbour's date, which may not be
// the day it really belongs to.
package gapfill

import (
	"github.com/valpere/calrefine/internal/table"
)

// Stats counts what a Fill pass changed.
type Stats struct {
	YearsFilled int
	DatesFilled int
	TimesFilled int
	Dropped     int
}

// tracker remembers the last present value of each filled column.
type tracker struct {
	year table.NullInt
	date table.NullString
	time table.NullString
}

// Fill forward-fills year, date and time independently, then drops rows
// whose event is "N/A". Values missing before the first present one stay
// missing. The slice is modified in place and the retained prefix returned.
func Fill(rows []table.Row) ([]table.Row, Stats) {
	var (
		last  tracker
		stats Stats
	)

	for i := range rows {
		r := &rows[i]

		if r.Year.Valid {
			last.year = r.Year
		} else if last.year.Valid {
			r.Year = last.year
			stats.YearsFilled++
		}

		if r.Date.Valid {
			last.date = r.Date
		} else if last.date.Valid {
			r.Date = last.date
			stats.DatesFilled++
		}

		if r.Time.Valid {
			last.time = r.Time
		} else if last.time.Valid {
			r.Time = last.time
			stats.TimesFilled++
		}
	}

	kept := rows[:0]
	for _, r := range rows {
		if r.Event == table.NotAvailable {
			stats.Dropped++
			continue
		}
		kept = append(kept, r)
	}

	return kept, stats
}
