package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/calrefine/internal/table"
)

const (
	// ErrorPrefix marks a failed composition in its string form.
	ErrorPrefix = "Conversion error: "

	composeLayout   = "2006-1-2 3:04PM"
	convertedLayout = "2006-01-02 03:04 PM"
)

// Reasons a composition can fail.
var (
	ErrMissingYear = errors.New("year is missing")
	ErrSentinel    = errors.New("date or time is a placeholder")
	ErrUnknownZone = errors.New("unknown time zone")
	ErrLayout      = errors.New("date and time do not match layout")
)

// Locator resolves zone names to locations.
type Locator interface {
	Load(name string) (*time.Location, error)
}

// Result is the outcome of one composition: either a converted wall-clock
// string in the target zone or the reason it could not be produced.
type Result struct {
	Converted string
	Err       error
}

// OK reports whether the composition succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// String renders the converted timestamp, or the failure prefixed with
// ErrorPrefix.
func (r Result) String() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Error()
	}
	return r.Converted
}

func failed(reason error, detail string) Result {
	if detail == "" {
		return Result{Err: reason}
	}
	return Result{Err: fmt.Errorf("%w: %s", reason, detail)}
}

// Composer builds zone-aware timestamps from the calendar's year, canonical
// date and clock columns.
type Composer struct {
	zones Locator
}

// NewComposer returns a Composer that loads zones through zones.
func NewComposer(zones Locator) *Composer {
	return &Composer{zones: zones}
}

// Compose reads "{year}-{M-D} {clock}" as wall-clock time in source and
// re-expresses the same instant in target, formatted "2006-01-02 03:04 PM".
// Placeholders short-circuit before any parsing. Ambiguous or skipped wall
// clocks resolve to standard time.
func (c *Composer) Compose(year table.NullInt, date, clock table.NullString, source, target string) Result {
	if !year.Valid {
		return failed(ErrMissingYear, "")
	}
	if IsSentinel(date) || IsSentinel(clock) {
		return failed(ErrSentinel, fmt.Sprintf("date=%q time=%q", date.Value, clock.Value))
	}

	srcLoc, err := c.zones.Load(source)
	if err != nil {
		return failed(ErrUnknownZone, fmt.Sprintf("source %q", source))
	}
	dstLoc, err := c.zones.Load(target)
	if err != nil {
		return failed(ErrUnknownZone, fmt.Sprintf("target %q", target))
	}

	stamp := fmt.Sprintf("%d-%s %s", year.Value, strings.TrimSpace(date.Value), normalizeClock(clock.Value))
	wall, err := time.Parse(composeLayout, stamp)
	if err != nil {
		return failed(ErrLayout, fmt.Sprintf("%q", stamp))
	}

	return Result{Converted: localize(wall, srcLoc).In(dstLoc).Format(convertedLayout)}
}

// localize reads the UTC fields of wall as a wall clock in loc. A wall clock
// repeated by a transition takes the standard-time instant; one skipped by a
// transition is read with the standard offset.
func localize(wall time.Time, loc *time.Location) time.Time {
	guess := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, loc)
	refs := [2]time.Time{guess.Add(-24 * time.Hour), guess.Add(24 * time.Hour)}

	var valid []time.Time
	for _, ref := range refs {
		cand := wall.Add(-offset(ref)).In(loc)
		if !sameWall(cand, wall) {
			continue
		}
		if len(valid) == 0 || !valid[0].Equal(cand) {
			valid = append(valid, cand)
		}
	}

	switch len(valid) {
	case 1:
		return valid[0]
	case 2:
		if valid[1].IsDST() || !valid[0].IsDST() {
			return valid[0]
		}
		return valid[1]
	}

	if sameWall(guess, wall) {
		return guess
	}
	for _, ref := range refs {
		if !ref.IsDST() {
			return wall.Add(-offset(ref)).In(loc)
		}
	}
	return guess
}

func offset(t time.Time) time.Duration {
	_, secs := t.Zone()
	return time.Duration(secs) * time.Second
}

func sameWall(t, wall time.Time) bool {
	y, m, d := t.Date()
	wy, wm, wd := wall.Date()
	return y == wy && m == wm && d == wd && t.Hour() == wall.Hour() && t.Minute() == wall.Minute()
}

// normalizeClock makes "11:00pm" and "11:00 PM" read as "11:00PM".
func normalizeClock(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
