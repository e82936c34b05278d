package internal

import "time"

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RefineRun is one invocation of the refinement pipeline.
type RefineRun struct {
	ID            string    `json:"id"`
	InputFile     string    `json:"input_file"`
	OutputFile    string    `json:"output_file"`
	SourceTZ      string    `json:"source_tz"`
	TargetTZ      string    `json:"target_tz"`
	Status        string    `json:"status"`
	RowsIn        int       `json:"rows_in"`
	RowsOut       int       `json:"rows_out"`
	InvalidDates  int       `json:"invalid_dates"`
	ConvertErrors int       `json:"convert_errors"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
}

// TimezoneDetection is one resolver outcome kept for history.
type TimezoneDetection struct {
	ID         int64     `json:"id"`
	Zone       string    `json:"zone"`
	Provider   string    `json:"provider"`
	Fallback   bool      `json:"fallback"`
	SystemZone string    `json:"system_zone"`
	DetectedAt time.Time `json:"detected_at"`
}
