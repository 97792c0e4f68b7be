package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aisharvest/aisharvest/internal/model"
)

// RunLedger provides SQLite-based storage for run summaries, so the
// history command can answer "when did I last harvest and how did it go"
// without the user keeping their own notes.
//
// Design decision: the ledger stores summaries, not harvested records.
// The CSV output is the canonical data artifact (it is what resume reads
// and what downstream consumers want), so duplicating it into SQLite
// would just create a second source of truth to keep honest.
type RunLedger struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunLedger behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunLedger in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunLedger, error) {
	dbPath := filepath.Join(dbDir, "aisharvest.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("ledger not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check ledger path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// SQLite only supports one writer; a wider pool buys nothing here.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &RunLedger{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ledger.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ledger, nil
}

// Close closes the database connection.
func (l *RunLedger) Close() error {
	return l.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (l *RunLedger) createTables() error {
	schema := `
	-- One row per completed collect or process run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		phase TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		units INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		items INTEGER NOT NULL,
		output_path TEXT,
		resumed INTEGER NOT NULL DEFAULT 0,
		failed_units TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_phase ON runs(phase);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := l.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored run summary plus its ledger ID.
type RunRecord struct {
	// ID is the unique identifier of the run in the ledger.
	ID int64 `json:"id"`

	model.RunSummary
}

// InsertRun stores one run summary and returns its ledger ID.
func (l *RunLedger) InsertRun(ctx context.Context, summary *model.RunSummary) (int64, error) {
	failedJSON, err := json.Marshal(summary.FailedUnits)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize failed units: %w", err)
	}

	query := `
	INSERT INTO runs (phase, started_at, duration_ms, units, succeeded, failed, items, output_path, resumed, failed_units)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := l.db.ExecContext(ctx, query,
		summary.Phase.String(),
		summary.StartedAt.UTC().Format("2006-01-02 15:04:05"),
		summary.Duration.Milliseconds(),
		summary.Units,
		summary.Succeeded,
		summary.Failed,
		summary.Items,
		summary.OutputPath,
		summary.Resumed,
		string(failedJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return result.LastInsertId()
}

// ListRuns retrieves stored runs, newest first. An empty phase matches
// every phase; limit <= 0 means no limit.
func (l *RunLedger) ListRuns(ctx context.Context, phase model.Phase, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, phase, started_at, duration_ms, units, succeeded, failed, items, output_path, resumed, failed_units
	FROM runs
	WHERE 1=1
	`
	args := make([]interface{}, 0)

	if phase != model.PhaseUnknown {
		query += " AND phase = ?"
		args = append(args, phase.String())
	}

	query += " ORDER BY started_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, record)
	}

	return results, rows.Err()
}

// GetRunByID retrieves one run by its ledger ID.
// Returns nil without error when no such run exists.
func (l *RunLedger) GetRunByID(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
	SELECT id, phase, started_at, duration_ms, units, succeeded, failed, items, output_path, resumed, failed_units
	FROM runs
	WHERE id = ?
	`

	row := l.db.QueryRowContext(ctx, query, id)
	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LatestRun retrieves the most recent run of a phase, or of any phase
// when phase is empty. Returns nil without error when the ledger has no
// matching run.
func (l *RunLedger) LatestRun(ctx context.Context, phase model.Phase) (*RunRecord, error) {
	runs, err := l.ListRuns(ctx, phase, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads one runs row into a RunRecord.
func scanRun(row rowScanner) (RunRecord, error) {
	var record RunRecord
	var phase string
	var startedAt string
	var durationMS int64
	var failedJSON sql.NullString

	err := row.Scan(
		&record.ID,
		&phase,
		&startedAt,
		&durationMS,
		&record.Units,
		&record.Succeeded,
		&record.Failed,
		&record.Items,
		&record.OutputPath,
		&record.Resumed,
		&failedJSON,
	)
	if err == sql.ErrNoRows {
		return record, err
	}
	if err != nil {
		return record, fmt.Errorf("failed to scan run: %w", err)
	}

	record.Phase = model.ParsePhase(phase)
	record.StartedAt = parseTimestamp(startedAt)
	record.Duration = time.Duration(durationMS) * time.Millisecond

	if failedJSON.Valid && failedJSON.String != "" {
		if err := json.Unmarshal([]byte(failedJSON.String), &record.FailedUnits); err != nil {
			record.FailedUnits = nil
		}
	}

	return record, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
