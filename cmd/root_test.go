package cmd

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
)

func TestRootCmd_RegistersCommands(t *testing.T) {
	root := rootCmd()

	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
	}
	want := []string{"audit", "auth", "config", "groups", "pending", "students", "ui"}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("command %q not registered (have %v)", name, got)
		}
	}
}

func TestRootCmd_AuditedCommands(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{
		{"students", "delete"},
		{"students", "remove-from-group"},
		{"groups", "delete"},
		{"groups", "create"},
		{"auth", "login"},
		{"pending", "resume"},
	} {
		c, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("Find(%v): %v", path, err)
		}
		if c.Annotations["audit"] == "" {
			t.Errorf("%s is not audited", c.CommandPath())
		}
	}
}

func TestAuditEntry(t *testing.T) {
	parent := &cobra.Command{Use: "roster"}
	child := &cobra.Command{Use: "delete"}
	parent.AddCommand(child)
	child.SetContext(auditlog.WithMetadata(context.Background(), auditlog.Metadata{
		Profile: "default", SubjectType: auditlog.SubjectStudent, SubjectID: "s1", SubjectName: "Иван Петров",
		ActionKind: "delete_student", ActionID: "a-1", ActionState: "finalized",
	}))

	start := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	entry := auditEntry(child, []string{"delete", "s1", "--password", "secret"}, start, start.Add(1500*time.Millisecond), nil)

	want := &auditlog.Entry{
		Timestamp:   start,
		Command:     "roster delete",
		Args:        "delete s1 --password <redacted>",
		Profile:     "default",
		SubjectType: auditlog.SubjectStudent,
		SubjectID:   "s1",
		SubjectName: "Иван Петров",
		ActionKind:  "delete_student",
		ActionID:    "a-1",
		ActionState: "finalized",
		Outcome:     auditlog.OutcomeSuccess,
		DurationMs:  1500,
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("audit entry mismatch (-want +got):\n%s", diff)
	}
}

func TestAuditEntry_UndoneAction(t *testing.T) {
	c := &cobra.Command{Use: "delete"}
	c.SetContext(auditlog.WithMetadata(context.Background(), auditlog.Metadata{
		ActionKind: "delete_group", ActionID: "a-2", ActionState: "undone",
	}))
	start := time.Now()
	entry := auditEntry(c, nil, start, start, nil)

	if entry.Outcome != auditlog.OutcomeUndone || entry.ActionState != "undone" {
		t.Errorf("outcome=%q state=%q, want undone", entry.Outcome, entry.ActionState)
	}
}

func TestAuditEntry_Error(t *testing.T) {
	c := &cobra.Command{Use: "login"}
	start := time.Now()
	entry := auditEntry(c, nil, start, start, errors.Join(domain.ErrInvalidCredentials))

	if entry.Outcome != auditlog.OutcomeError {
		t.Errorf("outcome = %q, want error", entry.Outcome)
	}
	if entry.Detail != "Неверный email или пароль" {
		t.Errorf("detail = %q", entry.Detail)
	}
}
