package undo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBoard_OnePerKind(t *testing.T) {
	changes := 0
	b := NewBoard(func() { changes++ })

	b.Show(Notification{Kind: KindDeleteStudent, ActionID: "a1", Message: "first"})
	b.Show(Notification{Kind: KindDeleteStudent, ActionID: "a2", Message: "second"})
	b.Show(Notification{Kind: KindDeleteGroup, ActionID: "g1", Message: "group"})

	got := b.Active()
	want := []Notification{
		{Kind: KindDeleteStudent, ActionID: "a2", Message: "second"},
		{Kind: KindDeleteGroup, ActionID: "g1", Message: "group"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Active mismatch (-want +got):\n%s", diff)
	}
	if changes != 3 {
		t.Errorf("expected 3 change callbacks, got %d", changes)
	}
}

func TestBoard_DismissIgnoresStaleActionID(t *testing.T) {
	b := NewBoard(nil)
	b.Show(Notification{Kind: KindDeleteStudent, ActionID: "new"})

	b.Dismiss(KindDeleteStudent, "old")
	if _, ok := b.Get(KindDeleteStudent); !ok {
		t.Fatal("dismissing a replaced action must not remove the current notification")
	}

	b.Dismiss(KindDeleteStudent, "new")
	if _, ok := b.Get(KindDeleteStudent); ok {
		t.Fatal("expected notification to be dismissed")
	}
}

func TestBoard_ErrorsFirst(t *testing.T) {
	b := NewBoard(nil)
	b.Show(Notification{Kind: KindRemoveFromGroup, ActionID: "r"})
	b.Show(Notification{Kind: KindDeleteStudent, ActionID: "d", Level: LevelError})

	got := b.Active()
	if len(got) != 2 || got[0].Kind != KindDeleteStudent {
		t.Errorf("expected error notification first, got %+v", got)
	}
}

func TestFanout(t *testing.T) {
	a, b := NewBoard(nil), NewBoard(nil)
	f := Fanout{a, b}

	f.Show(Notification{Kind: KindDeleteGroup, ActionID: "g"})
	if len(a.Active()) != 1 || len(b.Active()) != 1 {
		t.Fatal("expected both boards to receive the notification")
	}
	f.Dismiss(KindDeleteGroup, "g")
	if len(a.Active()) != 0 || len(b.Active()) != 0 {
		t.Fatal("expected both boards to be cleared")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, ok)
		}
	}
	if _, ok := ParseKind("archive"); ok {
		t.Error("expected unknown kind to fail")
	}
	if !KindDeleteStudent.Deferred() || KindDeleteGroup.Deferred() || KindRemoveFromGroup.Deferred() {
		t.Error("only delete_student is deferred")
	}
}
