// Package auditlog records every roster command that changed something,
// together with how its undoable action ended.
package auditlog

import "time"

// Outcomes of a recorded command. A command whose action was undone
// inside the grace window changed nothing and is recorded as undone.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeUndone  = "undone"
)

// Subject types.
const (
	SubjectStudent = "student"
	SubjectGroup   = "group"
	SubjectSession = "session"
	SubjectPending = "pending"
)

// Entry is one recorded command run.
type Entry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Command     string    `json:"command"`
	Args        string    `json:"args,omitempty"`
	Profile     string    `json:"profile,omitempty"`
	SubjectType string    `json:"subject_type,omitempty"`
	SubjectID   string    `json:"subject_id,omitempty"`
	SubjectName string    `json:"subject_name,omitempty"`
	ActionKind  string    `json:"action_kind,omitempty"`
	ActionID    string    `json:"action_id,omitempty"`
	ActionState string    `json:"action_state,omitempty"`
	Outcome     string    `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
}

// Outcome classifies a run: a failure is an error, an undone action is
// undone, anything else succeeded.
func Outcome(failed bool, actionState string) string {
	switch {
	case failed:
		return OutcomeError
	case actionState == "undone":
		return OutcomeUndone
	}
	return OutcomeSuccess
}
