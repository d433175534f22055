package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"image-audit/internal/compress"
	"image-audit/internal/logging"
	"image-audit/internal/organize"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Run is one journaled command invocation.
type Run struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	Root      string        `json:"root"`
	Mode      string        `json:"mode"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Oversized int           `json:"oversized"`
	Groups    int           `json:"groups"`
	Errors    int           `json:"errors"`
}

// Compression is one journaled compression outcome.
type Compression struct {
	Path        string `json:"path"`
	Outcome     string `json:"outcome"`
	BeforeBytes int64  `json:"beforeBytes,omitempty"`
	AfterBytes  int64  `json:"afterBytes,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Journal is an open history database.
type Journal struct {
	db   *sql.DB
	path string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the journal at dbPath. The parent directory must
// exist.
func Open(ctx context.Context, dbPath string) (*Journal, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	j := &Journal{db: db, path: dbPath}
	if err := j.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Debug("History database opened at %s", dbPath)
	return j, nil
}

func (j *Journal) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		root TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		oversized INTEGER NOT NULL DEFAULT 0,
		groups_found INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		from_path TEXT NOT NULL,
		to_path TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_moves_run ON moves(run_id);

	CREATE TABLE IF NOT EXISTS compressions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		outcome TEXT NOT NULL,
		before_bytes INTEGER NOT NULL DEFAULT 0,
		after_bytes INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_compressions_run ON compressions(run_id);
	`

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// RecordRun stores a run. An empty ID is filled in with a new one.
func (j *Journal) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, root, mode, started_at, duration_ms, total, oversized, groups_found, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Root, run.Mode,
		run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
		run.Total, run.Oversized, run.Groups, run.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordMoves stores the moved and failed files of a run.
func (j *Journal) RecordMoves(ctx context.Context, runID string, result *organize.MoveResult) error {
	rows := make([]organize.FileMove, 0, len(result.Moved)+len(result.Failed))
	rows = append(rows, result.Moved...)
	rows = append(rows, result.Failed...)

	return j.insertBatch(ctx, "moves",
		`INSERT INTO moves (run_id, from_path, to_path, error) VALUES (?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			m := rows[i]
			_, err := stmt.ExecContext(ctx, runID, m.From, m.To, m.Err)
			return err
		})
}

// RecordCompressions stores every changed and skipped file of a run.
func (j *Journal) RecordCompressions(ctx context.Context, runID string, result *compress.Result) error {
	rows := make([]Compression, 0, len(result.Changed)+len(result.Skipped))
	for _, c := range result.Changed {
		rows = append(rows, Compression{Path: c.Path, Outcome: "compressed", BeforeBytes: c.BeforeBytes, AfterBytes: c.AfterBytes})
	}
	for _, s := range result.Skipped {
		rows = append(rows, Compression{Path: s.Path, Outcome: s.Reason, Error: s.Error})
	}

	return j.insertBatch(ctx, "compressions",
		`INSERT INTO compressions (run_id, path, outcome, before_bytes, after_bytes, error) VALUES (?, ?, ?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			c := rows[i]
			_, err := stmt.ExecContext(ctx, runID, c.Path, c.Outcome, c.BeforeBytes, c.AfterBytes, c.Error)
			return err
		})
}

func (j *Journal) insertBatch(ctx context.Context, table, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s transaction: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		rollback(tx)
		return fmt.Errorf("failed to prepare %s insert: %w", table, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			logging.Debug("failed to close %s statement: %v", table, err)
		}
	}()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			rollback(tx)
			return fmt.Errorf("failed to record %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Error("failed to rollback history transaction: %v", err)
	}
}

const runColumns = `id, command, root, mode, started_at, duration_ms, total, oversized, groups_found, errors`

// Recent returns the latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Debug("failed to close run rows: %v", err)
		}
	}()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns a single run by ID.
func (j *Journal) Get(ctx context.Context, id string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedMs  int64
		durationMs int64
	)
	err := row.Scan(&run.ID, &run.Command, &run.Root, &run.Mode, &startedMs, &durationMs,
		&run.Total, &run.Oversized, &run.Groups, &run.Errors)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedMs)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// Moves returns the moves recorded for a run in insertion order.
func (j *Journal) Moves(ctx context.Context, runID string) ([]organize.FileMove, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx,
		`SELECT from_path, to_path, error FROM moves WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Debug("failed to close move rows: %v", err)
		}
	}()

	moves := []organize.FileMove{}
	for rows.Next() {
		var m organize.FileMove
		if err := rows.Scan(&m.From, &m.To, &m.Err); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}
	return moves, nil
}

// Compressions returns the compression outcomes recorded for a run.
func (j *Journal) Compressions(ctx context.Context, runID string) ([]Compression, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx,
		`SELECT path, outcome, before_bytes, after_bytes, error FROM compressions WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compressions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Debug("failed to close compression rows: %v", err)
		}
	}()

	out := []Compression{}
	for rows.Next() {
		var c Compression
		if err := rows.Scan(&c.Path, &c.Outcome, &c.BeforeBytes, &c.AfterBytes, &c.Error); err != nil {
			return nil, fmt.Errorf("failed to scan compression: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compressions: %w", err)
	}
	return out, nil
}
