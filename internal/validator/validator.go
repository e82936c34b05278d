// Package validator checks timezone names and scrape windows supplied by the
// user before they reach the refinement pipeline.
package validator

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures.
var (
	ErrInvalidTimezone = errors.New("invalid timezone")
	ErrInvalidYear     = errors.New("invalid year")
	ErrInvalidMonth    = errors.New("invalid month")
)

// ZoneSet is the registry of valid zone names.
type ZoneSet interface {
	Contains(name string) bool
}

// Period is an inclusive year/month scrape window.
type Period struct {
	StartYear  int
	StartMonth int
	EndYear    int
	EndMonth   int
}

// Validator checks user input against a zone registry and the current date.
type Validator struct {
	zones ZoneSet
	now   func() time.Time
}

// New creates a Validator backed by zones. now may be nil to use time.Now.
func New(zones ZoneSet, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{zones: zones, now: now}
}

// Timezone returns an error unless name is in the registry. role names the
// input in the message ("source", "target").
func (v *Validator) Timezone(role, name string) error {
	if name == "" || !v.zones.Contains(name) {
		return fmt.Errorf("%w: %s timezone %q", ErrInvalidTimezone, role, name)
	}
	return nil
}

// StartYear rejects negative and future years.
func (v *Validator) StartYear(year int) error {
	if year < 0 {
		return fmt.Errorf("%w: year cannot be negative", ErrInvalidYear)
	}
	if current := v.now().Year(); year > current {
		return fmt.Errorf("%w: start year cannot be in the future (current year: %d)", ErrInvalidYear, current)
	}
	return nil
}

// StartMonth rejects months outside 1-12 and future months of the current
// year.
func (v *Validator) StartMonth(year, month int) error {
	if err := monthRange(month); err != nil {
		return err
	}
	now := v.now()
	if year == now.Year() && month > int(now.Month()) {
		return fmt.Errorf("%w: cannot scrape future months (current month: %d)", ErrInvalidMonth, int(now.Month()))
	}
	return nil
}

// EndYear rejects an end year before the start year.
func (v *Validator) EndYear(startYear, endYear int) error {
	if endYear < startYear {
		return fmt.Errorf("%w: end year %d is before start year %d", ErrInvalidYear, endYear, startYear)
	}
	return nil
}

// EndMonth rejects months outside 1-12 and windows that end before they
// start.
func (v *Validator) EndMonth(p Period) error {
	if err := monthRange(p.EndMonth); err != nil {
		return err
	}
	if p.EndYear == p.StartYear && p.EndMonth < p.StartMonth {
		return fmt.Errorf("%w: end month %d is before start month %d", ErrInvalidMonth, p.EndMonth, p.StartMonth)
	}
	return nil
}

// Period checks a whole window at once.
func (v *Validator) Period(p Period) error {
	if err := v.StartYear(p.StartYear); err != nil {
		return err
	}
	if err := v.StartMonth(p.StartYear, p.StartMonth); err != nil {
		return err
	}
	if err := v.EndYear(p.StartYear, p.EndYear); err != nil {
		return err
	}
	return v.EndMonth(p)
}

func monthRange(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidMonth)
	}
	return nil
}
