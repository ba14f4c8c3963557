package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/155xp/WikiSpeedrun-Solver/internal/solver"
)

// RunDB provides SQLite-based storage for race results.
//
// Design decision: One database file for all runs rather than a file per
// run. History queries span runs, and a single file keeps backup and
// cleanup trivial.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in the specified directory.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "wikirun.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; keep the pool minimal.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per race
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		start_page TEXT NOT NULL,
		target_page TEXT NOT NULL,
		status TEXT NOT NULL,
		hops INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		created DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
	CREATE INDEX IF NOT EXISTS idx_runs_pages ON runs(start_page, target_page);

	-- One row per hop within a run, ordered by position
	CREATE TABLE IF NOT EXISTS run_steps (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		page TEXT NOT NULL,
		score REAL NOT NULL,
		direct_hit INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_steps_run ON run_steps(run_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored race summary.
type RunRecord struct {
	ID         string
	StartPage  string
	TargetPage string
	Status     string
	Hops       int
	Elapsed    time.Duration
	Created    time.Time
}

// StepRecord is one stored hop.
type StepRecord struct {
	Position  int
	Page      string
	Score     float64
	DirectHit bool
	Elapsed   time.Duration
}

// SaveRun stores a completed race and returns its generated ID.
// The run row and its steps are written in one transaction.
func (rdb *RunDB) SaveRun(ctx context.Context, result *solver.Result) (string, error) {
	id := uuid.NewString()

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, start_page, target_page, status, hops, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		id, result.Start, result.Target, string(result.Status), result.Hops(), result.Elapsed.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, step := range result.Steps {
		directHit := 0
		if step.DirectHit {
			directHit = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_steps (run_id, position, page, score, direct_hit, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
			id, i+1, step.Page, step.Score, directHit, step.Elapsed.Milliseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("insert step %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := rdb.db.QueryContext(ctx,
		`SELECT id, start_page, target_page, status, hops, elapsed_ms, created
		 FROM runs ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var elapsedMS int64
		var created string
		if err := rows.Scan(&r.ID, &r.StartPage, &r.TargetPage, &r.Status, &r.Hops, &elapsedMS, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.Created = parseTimestamp(created)
		records = append(records, r)
	}

	return records, rows.Err()
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

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GetRunSteps returns the ordered steps of one run.
func (rdb *RunDB) GetRunSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT position, page, score, direct_hit, elapsed_ms
		 FROM run_steps WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var s StepRecord
		var directHit int
		var elapsedMS int64
		if err := rows.Scan(&s.Position, &s.Page, &s.Score, &directHit, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		s.DirectHit = directHit != 0
		s.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		steps = append(steps, s)
	}

	return steps, rows.Err()
}
