package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"viflac/internal/services"
)

// ErrRunNotFound reports an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store manages run history backed by SQLite.
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

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "journal", "open", "create journal directory", err)
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// timeLayout keeps fractional seconds fixed-width so stored timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimestamp(value sql.NullString) time.Time {
	if !value.Valid || value.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// BeginRun inserts a running run.
func (s *Store) BeginRun(ctx context.Context, runID string) error {
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, status) VALUES (?, ?, ?)`,
		runID, timestamp(time.Now()), StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// MarkStage records the stage a run has reached.
func (s *Store) MarkStage(ctx context.Context, runID, stage string) error {
	return s.update(ctx, runID, `UPDATE runs SET stage = ? WHERE id = ?`, stage, runID)
}

// SetArtifact records the table file and record count of a run.
func (s *Store) SetArtifact(ctx context.Context, runID, tablePath string, recordCount int) error {
	return s.update(ctx, runID, `UPDATE runs SET table_path = ?, record_count = ? WHERE id = ?`,
		nullableString(tablePath), recordCount, runID)
}

// FinishRun stores the outcome of a run. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, runID string, status Status, runErr error) error {
	var message, kind any
	if runErr != nil {
		message = runErr.Error()
		kind = services.Classify(runErr)
	}
	return s.update(ctx, runID,
		`UPDATE runs SET status = ?, finished_at = ?, error = ?, error_kind = ? WHERE id = ?`,
		status, timestamp(time.Now()), message, kind, runID)
}

func (s *Store) update(ctx context.Context, runID, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordEvent appends a per-file event to a run.
func (s *Store) RecordEvent(ctx context.Context, event Event) error {
	created := event.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO events (run_id, record_id, kind, source_path, target_path, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID, event.RecordID, event.Kind, event.SourcePath, nullableString(event.TargetPath), timestamp(created),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, status, stage, error, error_kind, table_path, record_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run                            Run
		started, finished              sql.NullString
		stage, message, kind, artifact sql.NullString
		status                         string
	)
	if err := row.Scan(&run.ID, &started, &finished, &status, &stage, &message, &kind, &artifact, &run.RecordCount); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.Status = Status(status)
	run.Stage = stage.String
	run.Error = message.String
	run.ErrorKind = kind.String
	run.TablePath = artifact.String
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id starts with idPrefix. The prefix must be
// unambiguous.
func (s *Store) GetRun(ctx context.Context, idPrefix string) (Run, error) {
	idPrefix = strings.TrimSpace(idPrefix)
	if idPrefix == "" {
		return Run{}, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(idPrefix), idPrefix,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(found) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idPrefix)
	case 1:
		return found[0], nil
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", idPrefix)
	}
}

// Events returns the events of a run in insertion order.
func (s *Store) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, record_id, kind, source_path, target_path, created_at
         FROM events WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event   Event
			kind    string
			target  sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.RunID, &event.RecordID, &kind, &event.SourcePath, &target, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Kind = EventKind(kind)
		event.TargetPath = target.String
		event.CreatedAt = parseTimestamp(created)
		events = append(events, event)
	}
	return events, rows.Err()
}
