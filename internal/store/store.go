package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/valpere/calrefine/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS refine_runs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		source_tz TEXT NOT NULL,
		target_tz TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		rows_in INTEGER DEFAULT 0,
		rows_out INTEGER DEFAULT 0,
		invalid_dates INTEGER DEFAULT 0,
		convert_errors INTEGER DEFAULT 0,
		error TEXT DEFAULT '',
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	-- tz_detections logs every resolver outcome, including system fallbacks
	CREATE TABLE IF NOT EXISTS tz_detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone TEXT NOT NULL,
		provider TEXT DEFAULT '',
		fallback BOOLEAN DEFAULT FALSE,
		system_zone TEXT DEFAULT '',
		detected_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON refine_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_detections_time ON tz_detections(detected_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun records a run in the running state.
func (s *Store) CreateRun(ctx context.Context, run internal.RefineRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refine_runs (id, input_file, output_file, source_tz, target_tz, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.OutputFile, run.SourceTZ, run.TargetTZ, internal.RunRunning, run.StartedAt)
	return err
}

// CompleteRun stores the final counters of a successful run.
func (s *Store) CompleteRun(ctx context.Context, id string, rowsIn, rowsOut, invalidDates, convertErrors int) error {
	return s.finish(ctx,
		`UPDATE refine_runs SET status = ?, rows_in = ?, rows_out = ?, invalid_dates = ?, convert_errors = ?, finished_at = ? WHERE id = ?`,
		internal.RunCompleted, rowsIn, rowsOut, invalidDates, convertErrors, time.Now(), id)
}

// FailRun marks a run as failed with the given reason.
func (s *Store) FailRun(ctx context.Context, id string, reason string) error {
	return s.finish(ctx,
		`UPDATE refine_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		internal.RunFailed, reason, time.Now(), id)
}

func (s *Store) finish(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", args[len(args)-1])
	}
	return nil
}

const runColumns = `id, input_file, output_file, source_tz, target_tz, status, rows_in, rows_out, invalid_dates, convert_errors, error, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*internal.RefineRun, error) {
	var (
		r        internal.RefineRun
		finished sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.InputFile, &r.OutputFile, &r.SourceTZ, &r.TargetTZ, &r.Status,
		&r.RowsIn, &r.RowsOut, &r.InvalidDates, &r.ConvertErrors, &r.Error, &r.StartedAt, &finished); err != nil {
		return nil, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return &r, nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*internal.RefineRun, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM refine_runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRuns returns runs newest first. limit <= 0 returns all of them.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.RefineRun, error) {
	query := `SELECT ` + runColumns + ` FROM refine_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.RefineRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}

	return results, rows.Err()
}

// RunStats summarises the run history.
type RunStats struct {
	TotalRuns     int
	Completed     int
	Failed        int
	RowsRefined   int
	ConvertErrors int
	Detections    int
}

// Stats returns summary statistics for runs and detections.
func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(rows_out), 0),
			COALESCE(SUM(convert_errors), 0)
		FROM refine_runs`, internal.RunCompleted, internal.RunFailed).Scan(
		&stats.TotalRuns,
		&stats.Completed,
		&stats.Failed,
		&stats.RowsRefined,
		&stats.ConvertErrors,
	)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tz_detections`).Scan(&stats.Detections); err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteRun permanently removes a run by ID.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refine_runs WHERE id = ?`, id)
	return err
}

// ClearRuns removes all runs and detections.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refine_runs`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tz_detections`); err != nil {
		return n, err
	}
	return n, nil
}

// SaveDetection appends a resolver outcome.
func (s *Store) SaveDetection(ctx context.Context, d internal.TimezoneDetection) error {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tz_detections (zone, provider, fallback, system_zone, detected_at) VALUES (?, ?, ?, ?, ?)`,
		d.Zone, d.Provider, d.Fallback, d.SystemZone, d.DetectedAt)
	return err
}

// ListDetections returns detections newest first. limit <= 0 returns all.
func (s *Store) ListDetections(ctx context.Context, limit int) ([]internal.TimezoneDetection, error) {
	query := `SELECT id, zone, provider, fallback, system_zone, detected_at FROM tz_detections ORDER BY detected_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.TimezoneDetection
	for rows.Next() {
		var d internal.TimezoneDetection
		if err := rows.Scan(&d.ID, &d.Zone, &d.Provider, &d.Fallback, &d.SystemZone, &d.DetectedAt); err != nil {
			return nil, err
		}
		results = append(results, d)
	}

	return results, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
