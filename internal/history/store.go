// Package history records every songdeck run that does work in a SQLite
// database under the songdeck home directory, so `songdeck history` can
// list what was run against which configuration and where results went.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded command invocation.
type Run struct {
	ID         string
	Command    string
	ConfigPath string
	OutputDir  string
	Purpose    string
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Artifacts  []string
	LogFile    string
}

// Duration is how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter narrows List.
type Filter struct {
	ConfigPath string // exact match when set
	Command    string
	Limit      int // 0 means no limit
}

// Store manages the SQLite run history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the database at dbPath and applies migrations.
// ":memory:" opens a private in-memory database.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts run, assigning an ID when it has none.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	artifacts := "[]"
	if len(run.Artifacts) > 0 {
		data, err := json.Marshal(run.Artifacts)
		if err != nil {
			return fmt.Errorf("marshal artifacts: %w", err)
		}
		artifacts = string(data)
	}

	query := `INSERT INTO runs
		(id, command, config_path, output_dir, purpose, status, error_message, started_at, finished_at, artifacts, log_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Command,
		run.ConfigPath,
		run.OutputDir,
		run.Purpose,
		string(run.Status),
		run.Error,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		artifacts,
		run.LogFile,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = `SELECT id, command, config_path, output_dir, purpose, status, error_message, started_at, finished_at, artifacts, log_file FROM runs`

// List returns runs matching f, most recent first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Run, error) {
	var (
		where []string
		args  []any
	)
	if f.ConfigPath != "" {
		where = append(where, "config_path = ?")
		args = append(args, f.ConfigPath)
	}
	if f.Command != "" {
		where = append(where, "command = ?")
		args = append(args, f.Command)
	}

	query := selectRuns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// Get returns the run with id, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// Prune deletes runs started before cutoff and returns how many it removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	run := &Run{}
	var outputDir, purpose, errMsg, artifacts, logFile sql.NullString
	var status string
	err := sc.Scan(
		&run.ID,
		&run.Command,
		&run.ConfigPath,
		&outputDir,
		&purpose,
		&status,
		&errMsg,
		&run.StartedAt,
		&run.FinishedAt,
		&artifacts,
		&logFile,
	)
	if err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.OutputDir = outputDir.String
	run.Purpose = purpose.String
	run.Error = errMsg.String
	run.LogFile = logFile.String
	if artifacts.Valid && artifacts.String != "" {
		if err := json.Unmarshal([]byte(artifacts.String), &run.Artifacts); err != nil {
			return nil, fmt.Errorf("unmarshal artifacts: %w", err)
		}
	}
	return run, nil
}
