package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aisharvest/aisharvest/internal/model"
)

// setupTestLedger creates a temporary ledger for testing.
func setupTestLedger(t *testing.T) *RunLedger {
	t.Helper()

	ledger, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() {
		_ = ledger.Close()
	})
	return ledger
}

// sampleSummary returns a filled-in summary for one phase.
func sampleSummary(phase model.Phase, startedAt time.Time) *model.RunSummary {
	return &model.RunSummary{
		Phase:       phase,
		StartedAt:   startedAt,
		Duration:    90 * time.Second,
		Units:       26,
		Succeeded:   25,
		Failed:      1,
		FailedUnits: []string{"q"},
		Items:       31245,
		OutputPath:  "ais_numbers_checkpoint.txt",
		Resumed:     false,
	}
}

// TestOpen tests ledger creation and the CreateIfNotExists contract.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates directory and database", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "data")
		ledger, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		if _, err := os.Stat(filepath.Join(dir, "aisharvest.db")); err != nil {
			t.Errorf("expected database file to exist: %v", err)
		}
	})

	t.Run("refuses to create when told not to", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing ledger")
		}
	})

	t.Run("reopens an existing ledger read-write", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ledger, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create ledger: %v", err)
		}
		if _, err := ledger.InsertRun(context.Background(), sampleSummary(model.PhaseCollect, time.Now())); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if err := ledger.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen ledger: %v", err)
		}
		defer reopened.Close()

		runs, err := reopened.ListRuns(context.Background(), model.PhaseUnknown, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run, got %d", len(runs))
		}
	})
}

// TestInsertRun tests round-tripping a run summary through the ledger.
func TestInsertRun(t *testing.T) {
	t.Parallel()

	t.Run("round trips every field", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		startedAt := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)

		id, err := ledger.InsertRun(context.Background(), sampleSummary(model.PhaseCollect, startedAt))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if id <= 0 {
			t.Fatalf("expected a positive ID, got %d", id)
		}

		record, err := ledger.GetRunByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if record == nil {
			t.Fatal("expected a record")
		}

		if record.Phase != model.PhaseCollect {
			t.Errorf("unexpected phase: %v", record.Phase)
		}
		if !record.StartedAt.Equal(startedAt) {
			t.Errorf("expected start %v, got %v", startedAt, record.StartedAt)
		}
		if record.Duration != 90*time.Second {
			t.Errorf("unexpected duration: %v", record.Duration)
		}
		if record.Units != 26 || record.Succeeded != 25 || record.Failed != 1 {
			t.Errorf("unexpected counts: %d/%d/%d", record.Units, record.Succeeded, record.Failed)
		}
		if len(record.FailedUnits) != 1 || record.FailedUnits[0] != "q" {
			t.Errorf("unexpected failed units: %v", record.FailedUnits)
		}
		if record.Items != 31245 {
			t.Errorf("unexpected items: %d", record.Items)
		}
		if record.OutputPath != "ais_numbers_checkpoint.txt" {
			t.Errorf("unexpected output path: %q", record.OutputPath)
		}
		if record.Resumed {
			t.Error("expected a fresh run")
		}
	})

	t.Run("empty failed units stay empty", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		summary := sampleSummary(model.PhaseProcess, time.Now())
		summary.Failed = 0
		summary.FailedUnits = nil
		summary.Resumed = true

		id, err := ledger.InsertRun(context.Background(), summary)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		record, err := ledger.GetRunByID(context.Background(), id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(record.FailedUnits) != 0 {
			t.Errorf("expected no failed units, got %v", record.FailedUnits)
		}
		if !record.Resumed {
			t.Error("expected a resumed run")
		}
	})
}

// TestListRuns tests filtering and ordering.
func TestListRuns(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, ledger *RunLedger) {
		t.Helper()
		base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
		for i, phase := range []model.Phase{model.PhaseCollect, model.PhaseProcess, model.PhaseCollect} {
			summary := sampleSummary(phase, base.Add(time.Duration(i)*time.Hour))
			if _, err := ledger.InsertRun(context.Background(), summary); err != nil {
				t.Fatalf("seed insert failed: %v", err)
			}
		}
	}

	t.Run("newest first", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		seed(t, ledger)

		runs, err := ledger.ListRuns(context.Background(), model.PhaseUnknown, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		for i := 1; i < len(runs); i++ {
			if runs[i].StartedAt.After(runs[i-1].StartedAt) {
				t.Errorf("runs out of order: %v before %v", runs[i-1].StartedAt, runs[i].StartedAt)
			}
		}
	})

	t.Run("filters by phase", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		seed(t, ledger)

		runs, err := ledger.ListRuns(context.Background(), model.PhaseProcess, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 process run, got %d", len(runs))
		}
		if runs[0].Phase != model.PhaseProcess {
			t.Errorf("unexpected phase: %v", runs[0].Phase)
		}
	})

	t.Run("honors the limit", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		seed(t, ledger)

		runs, err := ledger.ListRuns(context.Background(), model.PhaseUnknown, 2)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("empty ledger lists nothing", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		runs, err := ledger.ListRuns(context.Background(), model.PhaseUnknown, 0)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no runs, got %d", len(runs))
		}
	})
}

// TestLatestRun tests the most-recent-run query.
func TestLatestRun(t *testing.T) {
	t.Parallel()

	t.Run("returns the newest matching run", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

		older := sampleSummary(model.PhaseCollect, base)
		newer := sampleSummary(model.PhaseCollect, base.Add(time.Hour))
		newer.Items = 99
		if _, err := ledger.InsertRun(context.Background(), older); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		if _, err := ledger.InsertRun(context.Background(), newer); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		latest, err := ledger.LatestRun(context.Background(), model.PhaseCollect)
		if err != nil {
			t.Fatalf("latest failed: %v", err)
		}
		if latest == nil {
			t.Fatal("expected a run")
		}
		if latest.Items != 99 {
			t.Errorf("expected the newer run, got items=%d", latest.Items)
		}
	})

	t.Run("no matching run returns nil", func(t *testing.T) {
		t.Parallel()

		ledger := setupTestLedger(t)
		latest, err := ledger.LatestRun(context.Background(), model.PhaseProcess)
		if err != nil {
			t.Fatalf("latest failed: %v", err)
		}
		if latest != nil {
			t.Errorf("expected nil, got %+v", latest)
		}
	})
}

// TestGetRunByID tests lookup misses.
func TestGetRunByID(t *testing.T) {
	t.Parallel()

	ledger := setupTestLedger(t)
	record, err := ledger.GetRunByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for a missing ID, got %+v", record)
	}
}

// TestParseTimestamp tests the timestamp formats SQLite hands back.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "datetime",
			input: "2026-02-14 09:30:00",
			want:  time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339",
			input: "2026-02-14T09:30:00Z",
			want:  time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds",
			input: "2026-02-14 09:30:00.5",
			want:  time.Date(2026, 2, 14, 9, 30, 0, 500000000, time.UTC),
		},
		{
			name:  "garbage",
			input: "not a timestamp",
			want:  time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
