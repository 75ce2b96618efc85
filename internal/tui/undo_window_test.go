package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/undo"
)

func TestUndoWindow_ViewCountsDown(t *testing.T) {
	armed := time.Now()
	m := undoWindowModel{
		action: undo.PendingAction{
			Kind:        undo.KindDeleteStudent,
			Message:     "Иван Петров удалён",
			ArmedAt:     armed,
			GraceWindow: 5 * time.Second,
		},
		now: armed.Add(1200 * time.Millisecond),
	}

	view := m.View()
	for _, want := range []string{"Иван Петров удалён", "u  отменить (4с)", "enter  сейчас"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestUndoWindow_ShowsUndoError(t *testing.T) {
	m := undoWindowModel{action: undo.PendingAction{Message: "Группа удалена"}}

	next, _ := m.Update(windowUndoMsg{err: domain.NewAPIError(409, "Группа с таким названием уже существует", domain.ErrConflict)})
	view := next.(undoWindowModel).View()

	if !strings.Contains(view, "Не удалось отменить: Группа с таким названием уже существует") {
		t.Errorf("expected undo error in view:\n%s", view)
	}
}

func TestUndoWindow_ClosesWithState(t *testing.T) {
	m := undoWindowModel{}
	next, cmd := m.Update(windowClosedMsg{state: undo.StateUndone})
	final := next.(undoWindowModel)

	if final.state != undo.StateUndone {
		t.Errorf("state = %q, want %q", final.state, undo.StateUndone)
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if final.View() != "" {
		t.Error("expected empty view once closed")
	}
}

func TestUndoWindow_KeysIgnoredWhileBusy(t *testing.T) {
	m := undoWindowModel{busy: true}
	if _, cmd := m.Update(key("u")); cmd != nil {
		t.Error("expected no command while busy")
	}
}

func TestUndoWindow_CommitErrorReenablesKeys(t *testing.T) {
	m := undoWindowModel{busy: true}
	next, _ := m.Update(windowCommitMsg{err: errors.New("boom")})
	if next.(undoWindowModel).busy {
		t.Error("expected busy cleared after a failed commit")
	}
}
