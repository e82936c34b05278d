// Package refiner runs the calendar refinement pipeline over a cleaned table:
// year coercion, date parsing, timezone conversion, splitting the converted
// timestamp back into columns and finally forward-filling gaps.
package refiner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/calrefine/internal/chunker"
	"github.com/valpere/calrefine/internal/convert"
	"github.com/valpere/calrefine/internal/gapfill"
	"github.com/valpere/calrefine/internal/table"
	"github.com/valpere/calrefine/internal/validator"
)

// ErrAlreadyRefined is returned by any call to Refine after the first,
// including after an interrupted one.
var ErrAlreadyRefined = errors.New("table already refined")

// Config selects the zones and the degree of row parallelism.
type Config struct {
	SourceTZ string
	TargetTZ string

	// Workers bounds the number of row spans processed at once. Values
	// below 1 mean sequential.
	Workers int

	// SpanRows is the row count per span; 0 uses chunker.DefaultSpanRows.
	SpanRows int

	Logger logrus.FieldLogger
}

// Report summarises one refinement.
type Report struct {
	RowsIn        int           `json:"rows_in"`
	RowsOut       int           `json:"rows_out"`
	InvalidDates  int           `json:"invalid_dates"`
	ConvertErrors int           `json:"convert_errors"`
	Fill          gapfill.Stats `json:"fill"`
	Duration      time.Duration `json:"duration"`
}

// Refiner owns a table and refines it in place.
type Refiner struct {
	tbl      *table.Table
	composer *convert.Composer
	config   Config
	log      logrus.FieldLogger
	done     bool
}

// New validates both zones against zones and returns a Refiner for tbl.
func New(tbl *table.Table, composer *convert.Composer, zones validator.ZoneSet, config Config) (*Refiner, error) {
	if tbl == nil {
		return nil, fmt.Errorf("refiner: nil table")
	}

	v := validator.New(zones, nil)
	if err := v.Timezone("source", config.SourceTZ); err != nil {
		return nil, err
	}
	if err := v.Timezone("target", config.TargetTZ); err != nil {
		return nil, err
	}

	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.SpanRows <= 0 {
		config.SpanRows = chunker.DefaultSpanRows
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Refiner{tbl: tbl, composer: composer, config: config, log: log}, nil
}

// Table returns the table being refined.
func (r *Refiner) Table() *table.Table {
	return r.tbl
}

// Save writes the table to path as CSV.
func (r *Refiner) Save(path string) error {
	if err := r.tbl.WriteFile(path); err != nil {
		return fmt.Errorf("failed to save refined data: %w", err)
	}
	r.log.WithFields(logrus.Fields{"path": path, "rows": r.tbl.Len()}).Info("Refined data saved")
	return nil
}

// tally holds the per-span counters merged after the parallel stage.
type tally struct {
	invalidDates  int
	convertErrors int
}

// Refine runs the pipeline. Row-wise stages run over disjoint spans in
// parallel; the gap fill is a single ordered pass over the whole table.
func (r *Refiner) Refine(ctx context.Context) (*Report, error) {
	if r.done {
		return nil, ErrAlreadyRefined
	}
	// Rows are rewritten in place, so even an interrupted pass cannot run again.
	r.done = true
	start := time.Now()

	report := &Report{RowsIn: r.tbl.Len()}
	spans := chunker.Chunk(r.tbl.Len(), r.config.SpanRows)
	tallies := make([]tally, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)
	for i, span := range spans {
		i, span := i, span
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows := r.tbl.Rows[span.Start:span.End]
			for j := range rows {
				r.refineRow(&rows[j], &tallies[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("refinement interrupted: %w", err)
	}

	for _, t := range tallies {
		report.InvalidDates += t.invalidDates
		report.ConvertErrors += t.convertErrors
	}

	r.tbl.Rows, report.Fill = gapfill.Fill(r.tbl.Rows)
	report.RowsOut = r.tbl.Len()
	report.Duration = time.Since(start)

	r.log.WithFields(logrus.Fields{
		"rows_in":        report.RowsIn,
		"rows_out":       report.RowsOut,
		"invalid_dates":  report.InvalidDates,
		"convert_errors": report.ConvertErrors,
		"dates_filled":   report.Fill.DatesFilled,
		"dropped":        report.Fill.Dropped,
	}).Info("Data refinement completed")

	if report.Fill.DatesFilled > 0 {
		r.log.WithField("dates_filled", report.Fill.DatesFilled).
			Debug("Dates carried forward from preceding rows")
	}

	return report, nil
}

func (r *Refiner) refineRow(row *table.Row, t *tally) {
	if !row.Year.Valid && row.YearText != "" {
		row.Year = table.ParseYear(row.YearText)
	}

	row.Date = convert.NormalizeDate(row.Date)
	if row.Date.Value == convert.InvalidDate {
		t.invalidDates++
	}

	res := r.composer.Compose(row.Year, row.Date, row.Time, r.config.SourceTZ, r.config.TargetTZ)
	if !res.OK() {
		t.convertErrors++
	}

	parts := convert.SplitResult(res)
	row.Year, row.Date, row.Time = parts.Year, parts.Date, parts.Time
}
