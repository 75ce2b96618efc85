package pending

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/pendingstore"
	"stopro/roster/internal/undo"
)

type fakeFinalizer struct {
	calls []string
	err   error
}

func (f *fakeFinalizer) DeleteStudent(_ context.Context, id string) error {
	f.calls = append(f.calls, id)
	return f.err
}

func newTestService(t *testing.T, fin Finalizer) (*Service, *pendingstore.SQLiteRepository) {
	t.Helper()
	repo, err := pendingstore.OpenAt(filepath.Join(t.TempDir(), "roster.db"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, "default", fin, zerolog.Nop()), repo
}

func testAction(id string, kind undo.Kind) undo.PendingAction {
	return undo.PendingAction{
		ID:          id,
		Kind:        kind,
		SubjectID:   "s-1",
		SubjectName: "Иван Иванов",
		PriorState:  map[string]string{"groupId": "g-1"},
		ArmedAt:     time.Now().Add(-time.Minute),
		GraceWindow: 5 * time.Second,
	}
}

func TestRecord_InsertsThenUpdates(t *testing.T) {
	svc, repo := newTestService(t, nil)
	a := testAction("act-1", undo.KindDeleteStudent)

	if err := svc.Record(a, undo.StateArmed, ""); err != nil {
		t.Fatalf("Record armed: %v", err)
	}
	if err := svc.Record(a, undo.StateFinalizeFailed, "server unreachable"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := repo.GetByActionID("act-1")
	if err != nil || got == nil {
		t.Fatalf("GetByActionID: %v %v", got, err)
	}
	if got.State != pendingstore.StateFinalizeFailed || got.Detail != "server unreachable" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.PriorState != `{"groupId":"g-1"}` {
		t.Errorf("PriorState = %q", got.PriorState)
	}
	if got.Profile != "default" || got.Kind != "delete_student" {
		t.Errorf("unexpected identity: %+v", got)
	}

	recent, _ := svc.ListRecent(10)
	if len(recent) != 1 {
		t.Errorf("expected a single record per action, got %d", len(recent))
	}
}

func TestListUnresolved_FiltersProfile(t *testing.T) {
	svc, repo := newTestService(t, nil)
	_ = svc.Record(testAction("mine", undo.KindDeleteStudent), undo.StateTornDown, "")

	other := NewService(repo, "other", nil, zerolog.Nop())
	_ = other.Record(testAction("theirs", undo.KindDeleteStudent), undo.StateTornDown, "")

	got, err := svc.ListUnresolved()
	if err != nil {
		t.Fatalf("ListUnresolved: %v", err)
	}
	if len(got) != 1 || got[0].ActionID != "mine" {
		t.Errorf("unexpected records: %+v", got)
	}
}

func TestResume_DeferredDelete(t *testing.T) {
	fin := &fakeFinalizer{}
	svc, repo := newTestService(t, fin)
	_ = svc.Record(testAction("act-1", undo.KindDeleteStudent), undo.StateTornDown, "")
	record, _ := repo.GetByActionID("act-1")

	var out bytes.Buffer
	if err := svc.Resume(context.Background(), record, time.Now(), &out); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(fin.calls) != 1 || fin.calls[0] != "s-1" {
		t.Errorf("expected one delete of s-1, got %v", fin.calls)
	}
	got, _ := repo.GetByActionID("act-1")
	if got.State != pendingstore.StateFinalized {
		t.Errorf("State = %q, want finalized", got.State)
	}
}

func TestResume_AlreadyDeleted(t *testing.T) {
	fin := &fakeFinalizer{err: domain.NewAPIError(404, "", domain.ErrNotFound)}
	svc, repo := newTestService(t, fin)
	_ = svc.Record(testAction("act-1", undo.KindDeleteStudent), undo.StateFinalizeFailed, "boom")
	record, _ := repo.GetByActionID("act-1")

	if err := svc.Resume(context.Background(), record, time.Now(), &bytes.Buffer{}); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	got, _ := repo.GetByActionID("act-1")
	if got.State != pendingstore.StateFinalized || got.Detail != "already deleted" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestResume_FailureKeepsRecordResumable(t *testing.T) {
	fin := &fakeFinalizer{err: domain.ErrUnreachable}
	svc, repo := newTestService(t, fin)
	_ = svc.Record(testAction("act-1", undo.KindDeleteStudent), undo.StateTornDown, "")
	record, _ := repo.GetByActionID("act-1")

	err := svc.Resume(context.Background(), record, time.Now(), &bytes.Buffer{})
	if !errors.Is(err, domain.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	unresolved, _ := svc.ListUnresolved()
	if len(unresolved) != 1 || unresolved[0].State != pendingstore.StateFinalizeFailed {
		t.Errorf("expected finalize_failed record, got %+v", unresolved)
	}
}

func TestResume_ImmediateKindOwesNothing(t *testing.T) {
	fin := &fakeFinalizer{}
	svc, repo := newTestService(t, fin)
	_ = svc.Record(testAction("act-1", undo.KindDeleteGroup), undo.StateTornDown, "")
	record, _ := repo.GetByActionID("act-1")

	if err := svc.Resume(context.Background(), record, time.Now(), &bytes.Buffer{}); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if len(fin.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", fin.calls)
	}
	got, _ := repo.GetByActionID("act-1")
	if got.State != pendingstore.StateExpired {
		t.Errorf("State = %q, want expired", got.State)
	}
}

func TestResume_SkipsLiveArmedRecord(t *testing.T) {
	fin := &fakeFinalizer{}
	svc, repo := newTestService(t, fin)
	a := testAction("act-1", undo.KindDeleteStudent)
	a.ArmedAt = time.Now()
	_ = svc.Record(a, undo.StateArmed, "")
	record, _ := repo.GetByActionID("act-1")

	err := svc.Resume(context.Background(), record, time.Now(), &bytes.Buffer{})
	if !errors.Is(err, ErrStillArmed) {
		t.Fatalf("expected ErrStillArmed, got %v", err)
	}
	if len(fin.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", fin.calls)
	}
}
