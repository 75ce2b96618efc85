package auditlog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"stopro/roster/internal/database"
)

// Query selects entries, newest first. Empty fields match everything.
type Query struct {
	Command     string
	Profile     string
	SubjectType string
	SubjectID   string
	ActionState string
	Limit       int
}

// Repository persists audit entries.
type Repository interface {
	Save(entry *Entry) error
	List(q Query) ([]Entry, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// SQLiteRepository keeps entries in the shared roster database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open opens the repository in the default database.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt opens the repository in the database at path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

const columns = `id, timestamp, command, args, profile, subject_type, subject_id, subject_name,
               action_kind, action_id, action_state, outcome, detail, duration_ms`

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS roster_audit (
            id           INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp    TEXT    NOT NULL,
            command      TEXT    NOT NULL,
            args         TEXT    NOT NULL DEFAULT '',
            profile      TEXT    NOT NULL DEFAULT '',
            subject_type TEXT    NOT NULL DEFAULT '',
            subject_id   TEXT    NOT NULL DEFAULT '',
            subject_name TEXT    NOT NULL DEFAULT '',
            action_kind  TEXT    NOT NULL DEFAULT '',
            action_id    TEXT    NOT NULL DEFAULT '',
            action_state TEXT    NOT NULL DEFAULT '',
            outcome      TEXT    NOT NULL DEFAULT '',
            detail       TEXT    NOT NULL DEFAULT '',
            duration_ms  INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_roster_audit_timestamp ON roster_audit(timestamp);
        CREATE INDEX IF NOT EXISTS idx_roster_audit_subject ON roster_audit(subject_type, subject_id);
        CREATE INDEX IF NOT EXISTS idx_roster_audit_action ON roster_audit(action_id);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("auditlog: migration failed: %w", err)
	}
	return nil
}

// Save inserts entry and assigns its ID. A zero timestamp means now.
func (r *SQLiteRepository) Save(entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	result, err := r.db.Exec(`
        INSERT INTO roster_audit (timestamp, command, args, profile, subject_type, subject_id, subject_name,
                                  action_kind, action_id, action_state, outcome, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.Format(time.RFC3339Nano), entry.Command, entry.Args, entry.Profile,
		entry.SubjectType, entry.SubjectID, entry.SubjectName,
		entry.ActionKind, entry.ActionID, entry.ActionState,
		entry.Outcome, entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}

	if entry.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("auditlog: failed to get last insert ID: %w", err)
	}
	return nil
}

// List returns the entries matching q, newest first.
func (r *SQLiteRepository) List(q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	for _, f := range []struct {
		column string
		value  string
	}{
		{"command", q.Command},
		{"profile", q.Profile},
		{"subject_type", q.SubjectType},
		{"subject_id", q.SubjectID},
		{"action_state", q.ActionState},
	} {
		if f.value != "" {
			where = append(where, f.column+" = ?")
			args = append(args, f.value)
		}
	}

	stmt := "SELECT " + columns + " FROM roster_audit"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY timestamp DESC, id DESC"
	if q.Limit > 0 {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes entries older than olderThan and reports how many.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`DELETE FROM roster_audit WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("auditlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		err := rows.Scan(
			&e.ID, &ts, &e.Command, &e.Args, &e.Profile,
			&e.SubjectType, &e.SubjectID, &e.SubjectName,
			&e.ActionKind, &e.ActionID, &e.ActionState,
			&e.Outcome, &e.Detail, &e.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("auditlog: scan failed: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
