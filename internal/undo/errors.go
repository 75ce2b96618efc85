package undo

import "errors"

var (
	// ErrNothingPending is returned when no action of the kind is armed.
	ErrNothingPending = errors.New("nothing to undo")

	// ErrUndoInProgress is returned when an undo of the same action is
	// already running.
	ErrUndoInProgress = errors.New("undo already in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("undo controller closed")

	// ErrInvalidAction is returned by Arm for an incomplete Action.
	ErrInvalidAction = errors.New("invalid pending action")
)
