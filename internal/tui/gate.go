package tui

import (
	"context"
	"errors"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"stopro/roster/internal/roster"
)

// FormGate confirms destructive actions with a huh dialog. The dialog
// opens on the negative answer.
type FormGate struct {
	Accessible bool
}

func (g FormGate) Confirm(ctx context.Context, p roster.Prompt) (bool, error) {
	confirm := false
	field := huh.NewConfirm().
		Title(p.Title).
		Description(p.Description).
		Affirmative(p.Affirmative).
		Negative(p.Negative).
		Value(&confirm)

	err := huh.NewForm(huh.NewGroup(field)).WithAccessible(g.Accessible).RunWithContext(ctx)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirm, nil
}

// relay forwards messages to a program that may not exist yet. Messages
// sent before Attach are dropped.
type relay struct {
	p atomic.Pointer[tea.Program]
}

func (r *relay) Attach(p *tea.Program) { r.p.Store(p) }

func (r *relay) Send(msg tea.Msg) {
	if p := r.p.Load(); p != nil {
		p.Send(msg)
	}
}

// confirmRequestMsg asks the app to show its confirmation modal. The
// answer goes to reply.
type confirmRequestMsg struct {
	prompt roster.Prompt
	reply  chan<- bool
}

// modalGate confirms through the app's own modal. Confirm runs on a
// command goroutine and blocks until the user answers.
type modalGate struct {
	relay *relay
}

func (g modalGate) Confirm(ctx context.Context, p roster.Prompt) (bool, error) {
	reply := make(chan bool, 1)
	g.relay.Send(confirmRequestMsg{prompt: p, reply: reply})
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
