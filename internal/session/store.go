package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/nodo1014/indexer/internal/config"
)

// ErrSessionActive indicates another indexer process holds the session lock.
var ErrSessionActive = errors.New("another indexer session is active")

// Store persists session state backed by SQLite, guarded by a file lock so a
// single process owns the session directory at a time.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

// Open acquires the session lock, connects to the session database, and
// initializes the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "session.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, ErrSessionActive
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "session.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, lock: lock, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the session lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}

// Path returns the session database location.
func (s *Store) Path() string {
	return s.path
}

// CompletedJob is one immutable journal row for a terminal job transition.
type CompletedJob struct {
	ID           int64
	JobID        string
	FilePath     string
	FileName     string
	Status       string
	Language     string
	Model        string
	ErrorMessage string
	OutputPath   string
	CompletedAt  time.Time
}

// RecordCompleted appends a journal row. Re-recording the same
// (file_path, status) pair is a no-op; the boolean reports whether a new row
// was written.
func (s *Store) RecordCompleted(ctx context.Context, entry CompletedJob) (bool, error) {
	if entry.FilePath == "" {
		return false, errors.New("completed job requires a file path")
	}
	if entry.Status == "" {
		return false, errors.New("completed job requires a status")
	}
	completedAt := entry.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO completed_jobs (
            job_id, file_path, file_name, status, language, model,
            error_message, output_path, completed_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(entry.JobID),
		entry.FilePath,
		nullableString(entry.FileName),
		entry.Status,
		nullableString(entry.Language),
		nullableString(entry.Model),
		nullableString(entry.ErrorMessage),
		nullableString(entry.OutputPath),
		completedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("record completed job: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return inserted > 0, nil
}

// Completed returns journal rows, newest first.
func (s *Store) Completed(ctx context.Context) ([]CompletedJob, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, job_id, file_path, file_name, status, language, model,
                error_message, output_path, completed_at
         FROM completed_jobs ORDER BY completed_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed jobs: %w", err)
	}
	defer rows.Close()

	var entries []CompletedJob
	for rows.Next() {
		var entry CompletedJob
		var jobID, fileName, lang, model, errMsg, outputPath sql.NullString
		var completedAt string
		if err := rows.Scan(
			&entry.ID, &jobID, &entry.FilePath, &fileName, &entry.Status,
			&lang, &model, &errMsg, &outputPath, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan completed job: %w", err)
		}
		entry.JobID = jobID.String
		entry.FileName = fileName.String
		entry.Language = lang.String
		entry.Model = model.String
		entry.ErrorMessage = errMsg.String
		entry.OutputPath = outputPath.String
		if parsed, parseErr := time.Parse(time.RFC3339Nano, completedAt); parseErr == nil {
			entry.CompletedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed jobs: %w", err)
	}
	return entries, nil
}

// ClearCompleted removes every journal row and reports the count removed.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM completed_jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear completed jobs: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// SetState writes one key/value row.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("state key must not be empty")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

// GetState reads one key/value row. The boolean reports presence.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
