package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/calrefine/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, started time.Time) internal.RefineRun {
	return internal.RefineRun{
		ID:         id,
		InputFile:  "raw.csv",
		OutputFile: "refined.csv",
		SourceTZ:   "Asia/Rangoon",
		TargetTZ:   "UTC",
		StartedAt:  started,
	}
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_CreateAndCompleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, sampleRun("run-1", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run == nil || run.Status != internal.RunRunning {
		t.Fatalf("expected running run, got %+v", run)
	}
	if !run.FinishedAt.IsZero() {
		t.Errorf("running run must not have a finish time, got %v", run.FinishedAt)
	}

	if err := s.CompleteRun(ctx, "run-1", 10, 8, 1, 2); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}

	run, err = s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != internal.RunCompleted || run.RowsIn != 10 || run.RowsOut != 8 || run.InvalidDates != 1 || run.ConvertErrors != 2 {
		t.Errorf("unexpected completed run %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Error("expected finish time")
	}
	if run.SourceTZ != "Asia/Rangoon" || run.TargetTZ != "UTC" {
		t.Errorf("zones not stored: %+v", run)
	}
}

func TestStore_FailRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, sampleRun("run-f", time.Now())); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if err := s.FailRun(ctx, "run-f", "missing columns"); err != nil {
		t.Fatalf("FailRun failed: %v", err)
	}

	run, _ := s.GetRun(ctx, "run-f")
	if run.Status != internal.RunFailed || run.Error != "missing columns" {
		t.Errorf("unexpected failed run %+v", run)
	}
}

func TestStore_FinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	if err := s.CompleteRun(context.Background(), "nope", 0, 0, 0, 0); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestStore_GetRun_Miss(t *testing.T) {
	s := newTestStore(t)
	run, err := s.GetRun(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Errorf("expected nil run, got %+v", run)
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.CreateRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "new" || runs[2].ID != "old" {
		t.Errorf("expected newest first, got %s..%s", runs[0].ID, runs[2].ID)
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs, got %d", len(limited))
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.CreateRun(ctx, sampleRun("a", time.Now()))
	s.CreateRun(ctx, sampleRun("b", time.Now()))
	s.CreateRun(ctx, sampleRun("c", time.Now()))
	s.CompleteRun(ctx, "a", 5, 4, 0, 1)
	s.CompleteRun(ctx, "b", 7, 6, 2, 0)
	s.FailRun(ctx, "c", "boom")
	s.SaveDetection(ctx, internal.TimezoneDetection{Zone: "UTC", Fallback: true})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRuns != 3 || stats.Completed != 2 || stats.Failed != 1 {
		t.Errorf("unexpected run counts %+v", stats)
	}
	if stats.RowsRefined != 10 || stats.ConvertErrors != 1 {
		t.Errorf("unexpected row counts %+v", stats)
	}
	if stats.Detections != 1 {
		t.Errorf("expected 1 detection, got %d", stats.Detections)
	}
}

func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.CreateRun(ctx, sampleRun("gone", time.Now()))
	if err := s.DeleteRun(ctx, "gone"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if run, _ := s.GetRun(ctx, "gone"); run != nil {
		t.Errorf("expected run to be deleted, got %+v", run)
	}
}

func TestStore_ClearRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.CreateRun(ctx, sampleRun("x", time.Now()))
	s.CreateRun(ctx, sampleRun("y", time.Now()))
	s.SaveDetection(ctx, internal.TimezoneDetection{Zone: "UTC"})

	n, err := s.ClearRuns(ctx)
	if err != nil {
		t.Fatalf("ClearRuns failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 cleared runs, got %d", n)
	}

	runs, _ := s.ListRuns(ctx, 0)
	detections, _ := s.ListDetections(ctx, 0)
	if len(runs) != 0 || len(detections) != 0 {
		t.Errorf("expected empty history, got %d runs and %d detections", len(runs), len(detections))
	}
}

func TestStore_Detections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := internal.TimezoneDetection{Zone: "Europe/Kyiv", Provider: "geojs", SystemZone: "UTC", DetectedAt: time.Now().Add(-time.Minute)}
	second := internal.TimezoneDetection{Zone: "UTC", Fallback: true, SystemZone: "UTC", DetectedAt: time.Now()}
	if err := s.SaveDetection(ctx, first); err != nil {
		t.Fatalf("SaveDetection failed: %v", err)
	}
	if err := s.SaveDetection(ctx, second); err != nil {
		t.Fatalf("SaveDetection failed: %v", err)
	}

	got, err := s.ListDetections(ctx, 0)
	if err != nil {
		t.Fatalf("ListDetections failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 detections, got %d", len(got))
	}
	if got[0].Zone != "UTC" || !got[0].Fallback {
		t.Errorf("expected newest fallback first, got %+v", got[0])
	}
	if got[1].Provider != "geojs" || got[1].SystemZone != "UTC" || got[1].Fallback {
		t.Errorf("unexpected detection %+v", got[1])
	}

	one, _ := s.ListDetections(ctx, 1)
	if len(one) != 1 {
		t.Errorf("expected limit to apply, got %d", len(one))
	}
}
