package runstate

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"platepipe/internal/config"
	"platepipe/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases must be deleted and rebuilt from a fresh plan.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages task state persistence backed by SQLite.
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

// Open initializes or connects to the task state database under the
// configured state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.StateDir, "runstate.db"))
}

// OpenPath initializes or connects to the task state database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
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
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and re-run)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Register records a planned unit, creating it as pending when new. An
// existing unit whose manifest checksum changed resets to pending; completed
// units with an unchanged checksum are left alone so re-runs skip them.
func (s *Store) Register(ctx context.Context, stage, groupKey, checksum string) (Task, error) {
	ctx = ensureContext(ctx)
	now := timestamp()

	existing, err := s.Get(ctx, stage, groupKey)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return Task{}, err
	}
	if err == nil {
		if existing.ManifestChecksum == checksum {
			return existing, nil
		}
		err = s.execWithRetry(ctx,
			`UPDATE task_state SET status = ?, manifest_checksum = ?, error_message = '', updated_at = ? WHERE id = ?`,
			string(StatusPending), checksum, now, existing.ID)
		if err != nil {
			return Task{}, fmt.Errorf("reset task: %w", err)
		}
		return s.Get(ctx, stage, groupKey)
	}

	err = s.execWithRetry(ctx,
		`INSERT INTO task_state (stage, group_key, status, manifest_checksum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		stage, groupKey, string(StatusPending), checksum, now, now)
	if err != nil {
		return Task{}, fmt.Errorf("register task: %w", err)
	}
	return s.Get(ctx, stage, groupKey)
}

// Get loads one task by its identity. Missing tasks classify as not found.
func (s *Store) Get(ctx context.Context, stage, groupKey string) (Task, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		taskColumns+` FROM task_state WHERE stage = ? AND group_key = ?`,
		stage, groupKey)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("%w: task %s (%s)", services.ErrNotFound, stage, groupKey)
	}
	return task, err
}

// List returns all tasks ordered by stage then group key.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	return s.query(ctx, taskColumns+` FROM task_state ORDER BY stage, group_key`)
}

// ListByStatus returns all tasks in one lifecycle state.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Task, error) {
	return s.query(ctx, taskColumns+` FROM task_state WHERE status = ? ORDER BY stage, group_key`, string(status))
}

// MarkRunning transitions a task to running under the given correlation id.
func (s *Store) MarkRunning(ctx context.Context, id int64, correlationID string) error {
	return s.setStatus(ctx, id, StatusRunning, correlationID, "")
}

// MarkCompleted transitions a task to completed and clears any prior error.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	return s.setStatus(ctx, id, StatusCompleted, "", "")
}

// MarkFailed transitions a task to failed with the error message.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.setStatus(ctx, id, StatusFailed, "", message)
}

// MarkReview parks a task for manual review with the reason.
func (s *Store) MarkReview(ctx context.Context, id int64, message string) error {
	return s.setStatus(ctx, id, StatusReview, "", message)
}

// ResetRunning returns any task stuck in running back to pending. Used on
// startup after an unclean shutdown.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`UPDATE task_state SET status = ?, updated_at = ? WHERE status = ?`,
			string(StatusPending), timestamp(), string(StatusRunning))
		if execErr != nil {
			return execErr
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reset running tasks: %w", err)
	}
	return affected, nil
}

// Summarize aggregates task counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM task_state GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize tasks: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch Status(status) {
		case StatusPending:
			summary.Pending = count
		case StatusRunning:
			summary.Running = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		case StatusReview:
			summary.Review = count
		}
	}
	return summary, rows.Err()
}

func (s *Store) setStatus(ctx context.Context, id int64, status Status, correlationID, message string) error {
	ctx = ensureContext(ctx)
	query := `UPDATE task_state SET status = ?, error_message = ?, updated_at = ?`
	args := []any{string(status), message, timestamp()}
	if correlationID != "" {
		query += `, correlation_id = ?`
		args = append(args, correlationID)
	}
	query += ` WHERE id = ?`
	args = append(args, id)
	if err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("set task %d %s: %w", id, status, err)
	}
	return nil
}

const taskColumns = `SELECT id, stage, group_key, status, manifest_checksum, correlation_id, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var status, created, updated string
	err := row.Scan(&task.ID, &task.Stage, &task.GroupKey, &status,
		&task.ManifestChecksum, &task.CorrelationID, &task.ErrorMessage, &created, &updated)
	if err != nil {
		return Task{}, err
	}
	task.Status = Status(status)
	task.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	task.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return task, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Task, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

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
