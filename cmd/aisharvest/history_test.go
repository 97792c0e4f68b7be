package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aisharvest/aisharvest/internal/database"
	"github.com/aisharvest/aisharvest/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has all flags with correct shorthands", func(t *testing.T) {
		t.Parallel()
		flagsWithShort := map[string]string{
			"phase":    "p",
			"limit":    "n",
			"last":     "l",
			"id":       "i",
			"json":     "j",
			"markdown": "m",
		}
		for name, short := range flagsWithShort {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != short {
				t.Errorf("expected %s shorthand %q, got %q", name, short, flag.Shorthand)
			}
		}
	})

	t.Run("limit defaults to twenty", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
	})
}

// TestRunHistoryCmdValidation tests flag validation.
// Both failures happen before the ledger is opened, so no database state
// is needed or touched.
func TestRunHistoryCmdValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects an unknown phase", func(t *testing.T) {
		t.Parallel()
		cmd := NewHistoryCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"--phase", "bogus"})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error for unknown phase")
		}
		if !strings.Contains(err.Error(), `invalid phase "bogus"`) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects --last with --id", func(t *testing.T) {
		t.Parallel()
		cmd := NewHistoryCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"--last", "--id", "3"})

		err := cmd.Execute()
		if err == nil {
			t.Fatal("expected error for conflicting selection flags")
		}
		if !strings.Contains(err.Error(), "mutually exclusive") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// seedLedger opens a temp ledger holding one collect and one process run.
// The process run is the more recent of the two.
func seedLedger(t *testing.T) *database.RunLedger {
	t.Helper()

	ledger, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })

	collect := &model.RunSummary{
		Phase:      model.PhaseCollect,
		StartedAt:  time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
		Duration:   2 * time.Minute,
		Units:      26,
		Succeeded:  26,
		Items:      4821,
		OutputPath: "ais_numbers_checkpoint.txt",
	}
	process := &model.RunSummary{
		Phase:       model.PhaseProcess,
		StartedAt:   time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		Duration:    30 * time.Minute,
		Units:       4821,
		Succeeded:   4800,
		Failed:      21,
		FailedUnits: []string{"00123456"},
		Items:       9512,
		OutputPath:  "alabama_inmates_database.csv",
	}

	ctx := context.Background()
	if _, err := ledger.InsertRun(ctx, collect); err != nil {
		t.Fatalf("failed to insert collect run: %v", err)
	}
	if _, err := ledger.InsertRun(ctx, process); err != nil {
		t.Fatalf("failed to insert process run: %v", err)
	}
	return ledger
}

// TestListRunHistory tests the run list in every output format.
func TestListRunHistory(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout.

	ctx := context.Background()

	t.Run("lists runs as text", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRunHistory(ctx, ledger, model.PhaseUnknown, 20, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "Recorded runs (2):") {
			t.Errorf("expected run count header, got: %s", output)
		}
		if !strings.Contains(output, "collect") || !strings.Contains(output, "process") {
			t.Errorf("expected both phases in the list, got: %s", output)
		}
		if !strings.Contains(output, "history --id") {
			t.Errorf("expected the inspect hint, got: %s", output)
		}
	})

	t.Run("filters by phase", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRunHistory(ctx, ledger, model.PhaseProcess, 20, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "Recorded runs (1):") {
			t.Errorf("expected a single filtered run, got: %s", buf.String())
		}
	})

	t.Run("lists runs as JSON", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRunHistory(ctx, ledger, model.PhaseUnknown, 20, true, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var runs []database.RunRecord
		if err := json.Unmarshal(buf.Bytes(), &runs); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		// Newest first: the process run started an hour after collect.
		if runs[0].Phase != model.PhaseProcess {
			t.Errorf("expected the process run first, got %q", runs[0].Phase)
		}
		if runs[0].ID == 0 {
			t.Error("expected the ledger ID to survive JSON encoding")
		}
	})

	t.Run("lists runs as markdown", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := listRunHistory(ctx, ledger, model.PhaseUnknown, 20, false, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "# Harvest Run History") {
			t.Errorf("expected markdown header, got: %s", output)
		}
		if !strings.Contains(output, "| ID | Phase |") {
			t.Errorf("expected markdown table header, got: %s", output)
		}
	})

	t.Run("empty ledger points at collect", func(t *testing.T) {
		ledger, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = listRunHistory(ctx, ledger, model.PhaseUnknown, 20, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "No runs recorded yet.") {
			t.Errorf("expected empty-ledger message, got: %s", output)
		}
		if !strings.Contains(output, "aisharvest collect") {
			t.Errorf("expected the collect hint, got: %s", output)
		}
	})
}

// TestShowRunByID tests single-run selection by ledger ID.
func TestShowRunByID(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout.

	ctx := context.Background()

	t.Run("shows an existing run", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := showRunByID(ctx, ledger, 1, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		output := buf.String()

		if !strings.Contains(output, "Run ID: 1") {
			t.Errorf("expected the ledger ID, got: %s", output)
		}
		if !strings.Contains(output, "AISHARVEST RUN REPORT") {
			t.Errorf("expected the report body, got: %s", output)
		}
	})

	t.Run("unknown ID is an error", func(t *testing.T) {
		ledger := seedLedger(t)

		err := showRunByID(ctx, ledger, 999, false, false)
		if err == nil {
			t.Fatal("expected error for unknown run ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestShowLatestRun tests most-recent-run selection.
func TestShowLatestRun(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout.

	ctx := context.Background()

	t.Run("shows the most recent run", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := showLatestRun(ctx, ledger, model.PhaseUnknown, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		// The process run is the newer of the two seeded runs.
		if !strings.Contains(buf.String(), "Run ID: 2") {
			t.Errorf("expected the process run, got: %s", buf.String())
		}
	})

	t.Run("phase filter picks the phase's latest", func(t *testing.T) {
		ledger := seedLedger(t)

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := showLatestRun(ctx, ledger, model.PhaseCollect, false, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "Run ID: 1") {
			t.Errorf("expected the collect run, got: %s", buf.String())
		}
	})

	t.Run("empty ledger is an error", func(t *testing.T) {
		ledger, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		err = showLatestRun(ctx, ledger, model.PhaseUnknown, false, false)
		if err == nil {
			t.Fatal("expected error for an empty ledger")
		}
		if !strings.Contains(err.Error(), "no runs recorded yet") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("empty phase filter names the phase", func(t *testing.T) {
		ledger, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open ledger: %v", err)
		}
		defer ledger.Close()

		err = showLatestRun(ctx, ledger, model.PhaseProcess, false, false)
		if err == nil {
			t.Fatal("expected error for an empty ledger")
		}
		if !strings.Contains(err.Error(), "no process runs recorded yet") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestOutputRunDetail tests the detail formats.
func TestOutputRunDetail(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout.

	ctx := context.Background()

	t.Run("JSON detail keeps the ledger ID", func(t *testing.T) {
		ledger := seedLedger(t)
		run, err := ledger.GetRunByID(ctx, 2)
		if err != nil || run == nil {
			t.Fatalf("failed to get seeded run: %v", err)
		}

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = outputRunDetail(run, true, false)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		var decoded database.RunRecord
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.ID != 2 {
			t.Errorf("expected ID 2, got %d", decoded.ID)
		}
		if decoded.Phase != model.PhaseProcess {
			t.Errorf("expected process phase, got %q", decoded.Phase)
		}
	})

	t.Run("markdown detail", func(t *testing.T) {
		ledger := seedLedger(t)
		run, err := ledger.GetRunByID(ctx, 1)
		if err != nil || run == nil {
			t.Fatalf("failed to get seeded run: %v", err)
		}

		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err = outputRunDetail(run, false, true)

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if !strings.Contains(buf.String(), "# AIS Harvest Report") {
			t.Errorf("expected markdown header, got: %s", buf.String())
		}
	})
}
