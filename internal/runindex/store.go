package runindex

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelpipe/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the table layout changes. The index is
// a cache, so a mismatched database can simply be deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of the index schema.
var ErrSchemaMismatch = errors.New("runindex: schema version mismatch")

// Entry is one recorded pipeline invocation.
type Entry struct {
	RunID          string
	ProjectID      string
	ProjectPath    string
	Status         string
	StartedAt      time.Time
	CompletedAt    time.Time
	StagesExecuted int
	StagesSkipped  int
	StagesFailed   int
}

// Store persists run history in a local SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the run index at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("runindex: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runindex: create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runindex: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("runindex: apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("runindex: check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("runindex: read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runindex: begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("runindex: create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("runindex: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("runindex: commit schema: %w", err)
	}
	return nil
}

// Record appends one invocation derived from the run summary.
func (s *Store) Record(ctx context.Context, summary pipeline.Summary) error {
	entry := entryFromSummary(summary)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, project_id, project_path, status, started_at, completed_at, stages_executed, stages_skipped, stages_failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.RunID,
			entry.ProjectID,
			entry.ProjectPath,
			entry.Status,
			entry.StartedAt.UTC().Format(time.RFC3339Nano),
			entry.CompletedAt.UTC().Format(time.RFC3339Nano),
			entry.StagesExecuted,
			entry.StagesSkipped,
			entry.StagesFailed,
		)
		if err != nil {
			return fmt.Errorf("runindex: record run: %w", err)
		}
		return nil
	})
}

// List returns the most recent invocations, newest first. A limit of
// zero or less means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
SELECT run_id, project_id, project_path, status, started_at, completed_at, stages_executed, stages_skipped, stages_failed
FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("runindex: list runs: %w", err)
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var (
				entry     Entry
				startedAt string
				completed string
			)
			if err := rows.Scan(
				&entry.RunID,
				&entry.ProjectID,
				&entry.ProjectPath,
				&entry.Status,
				&startedAt,
				&completed,
				&entry.StagesExecuted,
				&entry.StagesSkipped,
				&entry.StagesFailed,
			); err != nil {
				return fmt.Errorf("runindex: scan run: %w", err)
			}
			entry.StartedAt = parseIndexTime(startedAt)
			entry.CompletedAt = parseIndexTime(completed)
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListProject returns the most recent invocations for one project.
func (s *Store) ListProject(ctx context.Context, projectID string, limit int) ([]Entry, error) {
	query := `
SELECT run_id, project_id, project_path, status, started_at, completed_at, stages_executed, stages_skipped, stages_failed
FROM runs WHERE project_id = ? ORDER BY id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("runindex: list project runs: %w", err)
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var (
				entry     Entry
				startedAt string
				completed string
			)
			if err := rows.Scan(
				&entry.RunID,
				&entry.ProjectID,
				&entry.ProjectPath,
				&entry.Status,
				&startedAt,
				&completed,
				&entry.StagesExecuted,
				&entry.StagesSkipped,
				&entry.StagesFailed,
			); err != nil {
				return fmt.Errorf("runindex: scan run: %w", err)
			}
			entry.StartedAt = parseIndexTime(startedAt)
			entry.CompletedAt = parseIndexTime(completed)
			entries = append(entries, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func entryFromSummary(summary pipeline.Summary) Entry {
	entry := Entry{
		RunID:       summary.RunID,
		ProjectID:   summary.ProjectID,
		ProjectPath: summary.ProjectPath,
		Status:      summary.Status,
		StartedAt:   summary.StartedAt,
		CompletedAt: summary.CompletedAt,
	}
	for _, stage := range summary.Stages {
		switch stage.Status {
		case pipeline.StageCompleted:
			entry.StagesExecuted++
		case pipeline.StageSkipped:
			entry.StagesSkipped++
		case pipeline.StageFailed:
			entry.StagesFailed++
		}
	}
	return entry
}

func parseIndexTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
