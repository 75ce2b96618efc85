// Package undo implements the deferred-commit controller: destructive
// actions are armed with a grace window during which they can be undone.
// When the window lapses, deferred actions issue their remote call and
// immediate ones simply lose their undo affordance.
package undo

// Kind identifies a family of pending actions. At most one action per kind
// is armed at any time.
type Kind string

const (
	KindRemoveFromGroup Kind = "remove_from_group"
	KindDeleteStudent   Kind = "delete_student"
	KindDeleteGroup     Kind = "delete_group"
)

// Kinds lists every kind in display order.
var Kinds = []Kind{KindRemoveFromGroup, KindDeleteStudent, KindDeleteGroup}

// Deferred reports whether the kind's remote effect is postponed until the
// grace window lapses. Other kinds commit before they are armed.
func (k Kind) Deferred() bool {
	return k == KindDeleteStudent
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// State is a lifecycle state of a pending action.
type State string

const (
	StateArmed          State = "armed"
	StateUndone         State = "undone"
	StateExpired        State = "expired"
	StateFinalized      State = "finalized"
	StateFinalizeFailed State = "finalize_failed"
	StateReplaced       State = "replaced"
	StateTornDown       State = "torn_down"
)

// Terminal reports whether no further transition is expected without an
// explicit retry.
func (s State) Terminal() bool {
	return s != StateArmed && s != ""
}
