package undo

import (
	"sort"
	"sync"
	"time"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notification is the user-facing affordance for one pending action.
type Notification struct {
	Kind     Kind
	ActionID string
	Level    Level
	Message  string

	// Undoable means Undo is available until Deadline.
	Undoable bool
	Deadline time.Time

	// Retryable means the deferred finalization failed and
	// Controller.RetryFinalize may be called.
	Retryable bool
}

// Notifier receives notification changes. Implementations must not call
// back into the Controller synchronously.
type Notifier interface {
	// Show displays n, replacing any notification of the same kind.
	Show(n Notification)
	// Dismiss removes the notification of kind if it belongs to actionID.
	Dismiss(kind Kind, actionID string)
}

// Fanout forwards to every notifier in order.
type Fanout []Notifier

func (f Fanout) Show(n Notification) {
	for _, x := range f {
		x.Show(n)
	}
}

func (f Fanout) Dismiss(kind Kind, actionID string) {
	for _, x := range f {
		x.Dismiss(kind, actionID)
	}
}

// Board keeps the current notification per kind. Kinds display
// independently; a new notification of a kind replaces the previous one.
type Board struct {
	mu       sync.Mutex
	items    map[Kind]Notification
	onChange func()
}

// NewBoard returns an empty board. onChange, if non-nil, runs after every
// change outside the board's lock.
func NewBoard(onChange func()) *Board {
	return &Board{items: make(map[Kind]Notification), onChange: onChange}
}

func (b *Board) Show(n Notification) {
	b.mu.Lock()
	b.items[n.Kind] = n
	b.mu.Unlock()
	b.changed()
}

func (b *Board) Dismiss(kind Kind, actionID string) {
	b.mu.Lock()
	cur, ok := b.items[kind]
	removed := ok && cur.ActionID == actionID
	if removed {
		delete(b.items, kind)
	}
	b.mu.Unlock()
	if removed {
		b.changed()
	}
}

// Get returns the notification for kind.
func (b *Board) Get(kind Kind) (Notification, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.items[kind]
	return n, ok
}

// Active returns the current notifications ordered by kind.
func (b *Board) Active() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notification, 0, len(b.items))
	for _, k := range Kinds {
		if n, ok := b.items[k]; ok {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level > out[j].Level })
	return out
}

func (b *Board) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
