package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested attempt does not exist.
var ErrNotFound = errors.New("attempt not found")

// Store manages attempt persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

// Path returns the journal database location.
func (s *Store) Path() string { return s.path }

// Begin journals a new recording attempt in the recording state.
func (s *Store) Begin(ctx context.Context, runID string, episodeIndex int, task string) (*Attempt, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO attempts (run_id, episode_index, task, status, frames, created_at, updated_at)
         VALUES (?, ?, ?, ?, 0, ?, ?)`,
		runID, episodeIndex, task, StatusRecording, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// MarkCommitted resolves an attempt as committed with its final frame count.
func (s *Store) MarkCommitted(ctx context.Context, id int64, frames int) error {
	return s.resolve(ctx, id, StatusCommitted, frames, "")
}

// MarkAborted resolves an attempt as aborted, recording the cause.
func (s *Store) MarkAborted(ctx context.Context, id int64, cause string) error {
	return s.resolve(ctx, id, StatusAborted, 0, cause)
}

func (s *Store) resolve(ctx context.Context, id int64, status Status, frames int, cause string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE attempts SET status = ?, frames = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status, frames, nullableString(cause), now, id, StatusRecording,
	)
	if err != nil {
		return fmt.Errorf("resolve attempt %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resolve attempt %d to %s: %w", id, status, ErrNotFound)
	}
	return nil
}

// GetByID returns a single attempt.
func (s *Store) GetByID(ctx context.Context, id int64) (*Attempt, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" FROM attempts WHERE id = ?", id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %d: %w", id, ErrNotFound)
	}
	return attempt, err
}

// List returns the most recent attempts, newest first, bounded by limit.
// A non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Attempt, error) {
	query := selectColumns + " FROM attempts ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ListRun returns the attempts for one run in journal order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]*Attempt, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" FROM attempts WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("list run attempts: %w", err)
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// ResolveStale marks attempts still in the recording state as aborted.
// A previous process that crashed mid-episode leaves such rows behind.
func (s *Store) ResolveStale(ctx context.Context) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE attempts SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusAborted, "interrupted by process exit", now, StatusRecording,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve stale attempts: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

const selectColumns = `SELECT id, run_id, episode_index, task, status, frames, error_message, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var (
		attempt   Attempt
		status    string
		errMsg    sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&attempt.ID, &attempt.RunID, &attempt.EpisodeIndex, &attempt.Task,
		&status, &attempt.Frames, &errMsg, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	attempt.Status = Status(status)
	attempt.ErrorMessage = errMsg.String
	attempt.CreatedAt = parseTimestamp(createdAt)
	attempt.UpdatedAt = parseTimestamp(updatedAt)
	return &attempt, nil
}

func collectAttempts(rows *sql.Rows) ([]*Attempt, error) {
	var attempts []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
