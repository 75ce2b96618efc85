package audit

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/database"
)

func seedAudit(t *testing.T, entries ...auditlog.Entry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.db")
	database.SetPath(path)
	t.Cleanup(database.ResetPath)

	repo, err := auditlog.OpenAt(path)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer repo.Close()
	for i := range entries {
		if err := repo.Save(&entries[i]); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestList_Table(t *testing.T) {
	seedAudit(t,
		auditlog.Entry{
			Command: "roster students delete", Profile: "default", Outcome: auditlog.OutcomeSuccess,
			SubjectType: auditlog.SubjectStudent, SubjectID: "s1", SubjectName: "Иван Петров", DurationMs: 5200,
			ActionKind: "delete_student", ActionID: "a-1", ActionState: "finalized",
		},
		auditlog.Entry{Command: "roster groups create", Profile: "work", Outcome: auditlog.OutcomeError, Detail: "conflict"},
	)

	stdout, _, err := run(t, NewCommand(), "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ACTION", "roster students delete", "student:s1 (Иван Петров)", "delete_student → finalized", "5.2s", "conflict"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestList_FilterByProfileJSON(t *testing.T) {
	seedAudit(t,
		auditlog.Entry{Command: "roster students delete", Profile: "default", Outcome: auditlog.OutcomeSuccess},
		auditlog.Entry{Command: "roster groups create", Profile: "work", Outcome: auditlog.OutcomeSuccess},
	)

	stdout, _, err := run(t, NewCommand(), "list", "--profile", "Work", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []auditlog.Entry
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(got) != 1 || got[0].Command != "roster groups create" {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestList_FilterByActionState(t *testing.T) {
	seedAudit(t,
		auditlog.Entry{Command: "roster students delete", Outcome: auditlog.OutcomeUndone, ActionKind: "delete_student", ActionState: "undone", SubjectName: "Иван Петров"},
		auditlog.Entry{Command: "roster groups delete", Outcome: auditlog.OutcomeSuccess, ActionKind: "delete_group", ActionState: "expired", SubjectName: "9А"},
	)

	stdout, _, err := run(t, NewCommand(), "list", "--state", "undone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Иван Петров") || !strings.Contains(stdout, auditlog.OutcomeUndone) {
		t.Errorf("expected the undone deletion:\n%s", stdout)
	}
	if strings.Contains(stdout, "9А") {
		t.Errorf("expected the expired action filtered out:\n%s", stdout)
	}
}

func TestList_Empty(t *testing.T) {
	seedAudit(t)

	stdout, _, err := run(t, NewCommand(), "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "История пуста.") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestPrune(t *testing.T) {
	seedAudit(t,
		auditlog.Entry{Command: "roster auth login", Outcome: auditlog.OutcomeSuccess, Timestamp: time.Now().Add(-40 * 24 * time.Hour)},
		auditlog.Entry{Command: "roster auth logout", Outcome: auditlog.OutcomeSuccess},
	)

	stdout, _, err := run(t, NewCommand(), "prune", "--older-than", "30d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Удалено записей: 1") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "30d", want: 30 * 24 * time.Hour},
		{in: "72h", want: 72 * time.Hour},
		{in: "xd", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "-1h", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
