package undo

import (
	"context"
	"time"
)

// Action describes a confirmed destructive action to arm.
type Action struct {
	Kind        Kind
	SubjectID   string
	SubjectName string

	// Message is the notification text, e.g. "Ученик Иван Иванов удалён".
	Message string

	// PriorState is the snapshot that reverses the action. It is journaled
	// as JSON.
	PriorState any

	// Finalize issues the deferred remote call. Required for deferred
	// kinds, ignored otherwise.
	Finalize func(ctx context.Context) error

	// Revert reverses the action: locally for deferred kinds, with
	// compensating remote calls for the others. It may be called again
	// after a failure and must pick up where the previous attempt stopped.
	Revert func(ctx context.Context) error

	// FailureMessage is shown when the deferred call fails.
	FailureMessage string

	// Cancel is called instead of Revert when a newer action of the same
	// deferred kind replaces this one. Defaults to Revert.
	Cancel func(ctx context.Context) error
}

// PendingAction is a read-only view of an armed action.
type PendingAction struct {
	ID          string
	Kind        Kind
	SubjectID   string
	SubjectName string
	Message     string
	PriorState  any
	ArmedAt     time.Time
	GraceWindow time.Duration
}

// Deadline is when the grace window closes.
func (p PendingAction) Deadline() time.Time {
	return p.ArmedAt.Add(p.GraceWindow)
}

// Remaining returns the time left in the grace window at now, never
// negative.
func (p PendingAction) Remaining(now time.Time) time.Duration {
	if d := p.Deadline().Sub(now); d > 0 {
		return d
	}
	return 0
}
