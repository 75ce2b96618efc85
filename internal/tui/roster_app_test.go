package tui

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui/components"
	"stopro/roster/internal/undo"
)

func strPtr(s string) *string { return &s }

func update(t *testing.T, m rosterAppModel, msg interface{}) rosterAppModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(rosterAppModel)
}

func TestRosterApp_ConfirmRequestOpensModal(t *testing.T) {
	reply := make(chan bool, 1)
	m := update(t, rosterAppModel{}, confirmRequestMsg{prompt: testPrompt, reply: reply})
	if m.modal == nil {
		t.Fatal("expected modal to open")
	}

	// Keys go to the modal, not to the tabs.
	m = update(t, m, key("2"))
	if m.tab != tabStudents {
		t.Errorf("tab switched while modal open")
	}

	m = update(t, m, key("y"))
	if m.modal != nil {
		t.Error("expected modal to close after answer")
	}
	if got := <-reply; !got {
		t.Error("expected confirmation")
	}
}

func TestRosterApp_SecondConfirmRequestRefused(t *testing.T) {
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	m := update(t, rosterAppModel{}, confirmRequestMsg{prompt: testPrompt, reply: first})
	m = update(t, m, confirmRequestMsg{prompt: testPrompt, reply: second})

	if got := <-second; got {
		t.Error("expected overlapping request to be refused")
	}
	if m.modal == nil || m.modal.reply != first {
		t.Error("expected first modal to stay open")
	}
}

func TestRosterApp_TabsAndCursor(t *testing.T) {
	m := rosterAppModel{
		students: []domain.Student{
			{ID: "s1", FirstName: "А", GroupID: strPtr("g1")},
			{ID: "s2", FirstName: "Б"},
			{ID: "s3", FirstName: "В", GroupID: strPtr("g1")},
		},
		groups: []domain.Group{{ID: "g1", Name: "9А", StudentsCount: 2}},
	}

	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	if m.cursor[tabStudents] != 2 {
		t.Errorf("cursor = %d, want 2 (clamped at last row)", m.cursor[tabStudents])
	}

	m = update(t, m, key("2"))
	if m.tab != tabGroups {
		t.Fatalf("tab = %d, want groups", m.tab)
	}

	m = update(t, m, key("enter"))
	if m.tab != tabStudents || m.filter == nil || m.filter.ID != "g1" {
		t.Fatalf("expected students tab filtered by g1, got tab=%d filter=%v", m.tab, m.filter)
	}

	var ids []string
	for _, s := range m.visibleStudents() {
		ids = append(ids, s.ID)
	}
	if diff := cmp.Diff([]string{"s1", "s3"}, ids); diff != "" {
		t.Errorf("unexpected filtered students (-want +got):\n%s", diff)
	}

	m = update(t, m, key("esc"))
	if m.filter != nil {
		t.Error("expected esc to clear the group filter")
	}
}

func TestRosterApp_KeysIgnoredWhileLoading(t *testing.T) {
	m := update(t, rosterAppModel{loading: true}, key("2"))
	if m.tab != tabStudents {
		t.Error("expected tab switch to wait for the first load")
	}
}

func TestRosterApp_RemoveWithoutGroupShowsStatus(t *testing.T) {
	m := rosterAppModel{students: []domain.Student{{ID: "s1", FirstName: "Иван", LastName: "Петров"}}}
	next, cmd := m.Update(key("e"))
	m = next.(rosterAppModel)

	if cmd != nil {
		t.Error("expected no command for a student without a group")
	}
	if m.status != "Иван Петров не состоит в группе" {
		t.Errorf("status = %q", m.status)
	}
}

func TestRosterApp_UndoWithoutToastIsNoop(t *testing.T) {
	_, cmd := rosterAppModel{}.Update(key("u"))
	if cmd != nil {
		t.Error("expected no command without an undoable notification")
	}
}

func TestLatestUndoable(t *testing.T) {
	now := time.Now()
	notes := []undo.Notification{
		{Kind: undo.KindRemoveFromGroup, ActionID: "a", Undoable: true, Deadline: now.Add(time.Second)},
		{Kind: undo.KindDeleteStudent, ActionID: "b", Level: undo.LevelError, Retryable: true},
		{Kind: undo.KindDeleteGroup, ActionID: "c", Undoable: true, Deadline: now.Add(3 * time.Second)},
	}

	got, ok := latestUndoable(notes)
	if !ok || got.ActionID != "c" {
		t.Errorf("latestUndoable = %+v, %v; want action c", got, ok)
	}

	retry, ok := firstRetryable(notes)
	if !ok || retry.ActionID != "b" {
		t.Errorf("firstRetryable = %+v, %v; want action b", retry, ok)
	}

	if _, ok := latestUndoable(notes[1:2]); ok {
		t.Error("expected no undoable notification")
	}
	if _, ok := firstRetryable(nil); ok {
		t.Error("expected no retryable notification")
	}
}

func TestToToasts(t *testing.T) {
	now := time.Now()
	notes := []undo.Notification{
		{Kind: undo.KindDeleteStudent, Level: undo.LevelError, Message: "Не удалось удалить", Retryable: true},
		{Kind: undo.KindDeleteGroup, Message: "Группа удалена", Undoable: true, Deadline: now.Add(2 * time.Second)},
		{Kind: undo.KindRemoveFromGroup, Message: "Окно закрыто", Undoable: true, Deadline: now.Add(-time.Second)},
	}

	expected := []components.Toast{
		{Message: "Не удалось удалить", Error: true, Retryable: true},
		{Message: "Группа удалена", Undoable: true, Remaining: 2 * time.Second},
		{Message: "Окно закрыто", Undoable: true, Remaining: 0},
	}
	if diff := cmp.Diff(expected, toToasts(notes, now)); diff != "" {
		t.Errorf("unexpected toasts (-want +got):\n%s", diff)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ cursor, n, want int }{
		{0, 0, 0},
		{5, 3, 2},
		{1, 3, 1},
		{-1, 3, 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.cursor, tt.n); got != tt.want {
			t.Errorf("clamp(%d, %d) = %d, want %d", tt.cursor, tt.n, got, tt.want)
		}
	}
}
