// Package pendingstore persists the lifecycle of pending destructive
// actions.
//
// Every action armed by the undo controller is journaled here with its
// prior state. If the process exits before a deferred delete is committed
// (Ctrl+C, crash, closing the UI) the record stays unresolved and
// `roster pending resume` can finish it on the next invocation.
//
// Storage shares the SQLite database at ~/.config/roster/roster.db.
package pendingstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stopro/roster/internal/database"
)

// Repository defines the persistence interface for pending-action records.
type Repository interface {
	// Save inserts or updates a record. On insert (ID == 0), an ID is
	// assigned to the record.
	Save(record *Record) error

	// GetByActionID retrieves a record by its action ID, or nil.
	GetByActionID(actionID string) (*Record, error)

	// ListUnresolved returns records that may still owe a remote call,
	// newest first.
	ListUnresolved() ([]Record, error)

	// ListRecent returns the most recent n records regardless of state,
	// newest first.
	ListRecent(n int) ([]Record, error)

	// DeleteOlderThan removes resolved records older than d.
	// Returns the number of records removed.
	DeleteOlderThan(d time.Duration) (int64, error)

	// Close releases database resources.
	Close() error
}

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
// The parent directory is created if it does not exist.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

// migrate creates the pending_actions table if it doesn't exist.
func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS pending_actions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			action_id    TEXT    NOT NULL UNIQUE,
			profile      TEXT    NOT NULL DEFAULT '',
			kind         TEXT    NOT NULL,
			subject_id   TEXT    NOT NULL,
			subject_name TEXT    NOT NULL DEFAULT '',
			prior_state  TEXT    NOT NULL DEFAULT '{}',
			state        TEXT    NOT NULL DEFAULT 'armed',
			detail       TEXT    NOT NULL DEFAULT '',
			expires_at   TEXT    NOT NULL,
			created_at   TEXT    NOT NULL,
			updated_at   TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_pending_actions_state ON pending_actions(state);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("pending: migration failed: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, action_id, profile, kind, subject_id, subject_name, prior_state,
	       state, detail, expires_at, created_at, updated_at
	FROM pending_actions`

var unresolvedStates = []string{StateArmed, StateTornDown, StateFinalizeFailed}

// Save inserts a new record (ID == 0) or updates an existing one.
func (r *SQLiteRepository) Save(record *Record) error {
	record.UpdatedAt = time.Now().UTC()
	if record.PriorState == "" {
		record.PriorState = "{}"
	}

	if record.ID == 0 {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
		result, err := r.db.Exec(`
			INSERT INTO pending_actions (action_id, profile, kind, subject_id, subject_name, prior_state, state, detail, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ActionID, record.Profile, record.Kind, record.SubjectID, record.SubjectName,
			record.PriorState, record.State, record.Detail,
			formatTime(record.ExpiresAt), formatTime(record.CreatedAt), formatTime(record.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("pending: insert failed: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("pending: failed to get last insert ID: %w", err)
		}
		record.ID = id
		return nil
	}

	result, err := r.db.Exec(`
		UPDATE pending_actions SET action_id=?, profile=?, kind=?, subject_id=?, subject_name=?,
		       prior_state=?, state=?, detail=?, expires_at=?, updated_at=?
		WHERE id=?`,
		record.ActionID, record.Profile, record.Kind, record.SubjectID, record.SubjectName,
		record.PriorState, record.State, record.Detail,
		formatTime(record.ExpiresAt), formatTime(record.UpdatedAt), record.ID,
	)
	if err != nil {
		return fmt.Errorf("pending: update failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("pending: record with ID %d not found", record.ID)
	}
	return nil
}

// GetByActionID retrieves a record by action ID. It returns nil, nil when
// no record matches.
func (r *SQLiteRepository) GetByActionID(actionID string) (*Record, error) {
	row := r.db.QueryRow(selectColumns+` WHERE action_id = ?`, actionID)

	record, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pending: query failed: %w", err)
	}
	return record, nil
}

// ListUnresolved returns armed, torn-down and failed records.
func (r *SQLiteRepository) ListUnresolved() ([]Record, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unresolvedStates)), ",")
	args := make([]any, len(unresolvedStates))
	for i, s := range unresolvedStates {
		args[i] = s
	}

	rows, err := r.db.Query(selectColumns+` WHERE state IN (`+placeholders+`) ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("pending: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListRecent returns the most recent n records regardless of state.
func (r *SQLiteRepository) ListRecent(n int) ([]Record, error) {
	rows, err := r.db.Query(selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("pending: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// DeleteOlderThan removes resolved records last updated before now-d.
func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().UTC().Add(-d))
	result, err := r.db.Exec(`
		DELETE FROM pending_actions
		WHERE state NOT IN (?, ?, ?) AND updated_at < ?`,
		StateArmed, StateTornDown, StateFinalizeFailed, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pending: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*Record, error) {
	var record Record
	var expiresStr, createdStr, updatedStr string
	err := s.Scan(
		&record.ID, &record.ActionID, &record.Profile, &record.Kind, &record.SubjectID,
		&record.SubjectName, &record.PriorState, &record.State, &record.Detail,
		&expiresStr, &createdStr, &updatedStr,
	)
	if err != nil {
		return nil, err
	}
	record.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresStr)
	record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
	return &record, nil
}

func scanRows(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		record, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("pending: scan failed: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}
