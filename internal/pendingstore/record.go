package pendingstore

import "time"

// Journal states. Armed, TornDown and FinalizeFailed are unresolved: the
// action's final remote effect may still be owed.
const (
	StateArmed          = "armed"
	StateUndone         = "undone"
	StateExpired        = "expired"
	StateFinalized      = "finalized"
	StateFinalizeFailed = "finalize_failed"
	StateReplaced       = "replaced"
	StateTornDown       = "torn_down"
)

// Record is a persisted pending action. It keeps enough of the action's
// prior state to finish or explain it after the process that armed it has
// exited.
type Record struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	// ActionID is the controller-assigned identifier (a UUID).
	ActionID string

	// Profile is the session profile the action was armed under.
	Profile string

	// Kind is the action kind, e.g. "delete_student".
	Kind string

	// SubjectID is the ID of the student or group acted upon.
	SubjectID string

	// SubjectName is the human-readable subject (for display).
	SubjectName string

	// PriorState is the JSON snapshot needed to reverse the action.
	PriorState string

	// State is one of the State* constants.
	State string

	// Detail holds the last error message, if any.
	Detail string

	// ExpiresAt is when the grace window closes.
	ExpiresAt time.Time

	// CreatedAt is when the action was armed.
	CreatedAt time.Time

	// UpdatedAt is the last time the record was modified.
	UpdatedAt time.Time
}

// Unresolved reports whether the record may still need a remote call.
func (r Record) Unresolved() bool {
	switch r.State {
	case StateArmed, StateTornDown, StateFinalizeFailed:
		return true
	}
	return false
}
