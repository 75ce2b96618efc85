package auditlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func tempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := OpenAt(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("OpenAt failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func save(t *testing.T, r *SQLiteRepository, entries ...*Entry) {
	t.Helper()
	for _, e := range entries {
		if err := r.Save(e); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
}

func commands(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Command+"/"+e.ActionState)
	}
	return out
}

func TestSave_RoundTripsActionOutcome(t *testing.T) {
	r := tempRepo(t)
	entry := &Entry{
		Command:     "roster students delete",
		Args:        "students delete s-1",
		Profile:     "default",
		SubjectType: SubjectStudent,
		SubjectID:   "s-1",
		SubjectName: "Иван Иванов",
		ActionKind:  "delete_student",
		ActionID:    "a-1",
		ActionState: "undone",
		Outcome:     OutcomeUndone,
		DurationMs:  5400,
	}
	save(t, r, entry)
	if entry.ID == 0 || entry.Timestamp.IsZero() {
		t.Fatalf("ID and timestamp should be assigned: %+v", entry)
	}

	got, err := r.List(Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if diff := cmp.Diff(*entry, got[0], cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	r := tempRepo(t)
	base := time.Now().Add(-time.Hour)
	for i, cmd := range []string{"roster groups create", "roster groups rename", "roster groups delete"} {
		save(t, r, &Entry{Command: cmd, Outcome: OutcomeSuccess, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	got, err := r.List(Query{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"roster groups delete/", "roster groups rename/"}
	if diff := cmp.Diff(want, commands(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestList_Filters(t *testing.T) {
	r := tempRepo(t)
	save(t, r,
		&Entry{Command: "roster students delete", Profile: "default", SubjectType: SubjectStudent, SubjectID: "s-1", ActionState: "finalized", Outcome: OutcomeSuccess},
		&Entry{Command: "roster students delete", Profile: "work", SubjectType: SubjectStudent, SubjectID: "s-2", ActionState: "undone", Outcome: OutcomeUndone},
		&Entry{Command: "roster groups delete", Profile: "default", SubjectType: SubjectGroup, SubjectID: "g-1", ActionState: "undone", Outcome: OutcomeUndone},
		&Entry{Command: "roster groups create", Profile: "default", SubjectType: SubjectGroup, SubjectID: "g-2", Outcome: OutcomeSuccess},
	)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"by command", Query{Command: "roster students delete"}, []string{"roster students delete/undone", "roster students delete/finalized"}},
		{"by profile", Query{Profile: "work"}, []string{"roster students delete/undone"}},
		{"by subject", Query{SubjectType: SubjectGroup, SubjectID: "g-1"}, []string{"roster groups delete/undone"}},
		{"undone actions", Query{ActionState: "undone"}, []string{"roster groups delete/undone", "roster students delete/undone"}},
		{"combined", Query{Profile: "default", ActionState: "undone", Command: "roster students delete"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(tt.q)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, commands(got)); diff != "" {
				t.Errorf("List(%+v) mismatch (-want +got):\n%s", tt.q, diff)
			}
		})
	}
}

func TestPrune(t *testing.T) {
	r := tempRepo(t)
	save(t, r,
		&Entry{Command: "roster auth login", Outcome: OutcomeSuccess, Timestamp: time.Now().Add(-48 * time.Hour)},
		&Entry{Command: "roster auth logout", Outcome: OutcomeSuccess, Timestamp: time.Now().Add(-time.Hour)},
	)

	removed, err := r.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, err := r.List(Query{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if diff := cmp.Diff([]string{"roster auth logout/"}, commands(remaining)); diff != "" {
		t.Errorf("remaining mismatch (-want +got):\n%s", diff)
	}
}
