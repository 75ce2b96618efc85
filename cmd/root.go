package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/audit"
	"stopro/roster/cmd/commands/auth"
	"stopro/roster/cmd/commands/cmdutil"
	cfgcmd "stopro/roster/cmd/commands/config"
	"stopro/roster/cmd/commands/groups"
	"stopro/roster/cmd/commands/pending"
	"stopro/roster/cmd/commands/students"
	"stopro/roster/cmd/commands/ui"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage your students and groups from the terminal",
		Long: `roster manages the students and groups of a teacher account on the
learning platform.

Removing a student from a group, deleting a student and deleting a group
stay undoable for a short grace window (5s by default, see
"roster config set grace-window").

Quick start:
  roster auth login                    # Sign in
  roster ui                            # Interactive roster
  roster students list                 # List students
  roster students delete "Иван Петров" # Delete with an undo window
  roster pending resume                # Finish interrupted deletions`,
		SilenceErrors: true,
	}

	cmd.AddCommand(auth.NewCommand())
	cmd.AddCommand(cfgcmd.NewCommand())
	cmd.AddCommand(students.NewCommand())
	cmd.AddCommand(groups.NewCommand())
	cmd.AddCommand(pending.NewCommand())
	cmd.AddCommand(ui.NewCommand())
	cmd.AddCommand(audit.NewCommand())

	return cmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	root := rootCmd()

	start := time.Now()
	executed, err := root.ExecuteC()
	recordAudit(executed, start, err)

	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error: "+domain.UserMessage(err))
		os.Exit(1)
	}
}

// recordAudit writes an audit entry for commands that change something.
// Failures to write are ignored; the command's own result stands.
func recordAudit(executed *cobra.Command, start time.Time, runErr error) {
	if executed == nil || executed.Annotations[cmdutil.AuditAnnotation] == "" {
		return
	}

	repo, err := auditlog.Open()
	if err != nil {
		return
	}
	defer repo.Close()

	_ = repo.Save(auditEntry(executed, os.Args[1:], start, time.Now(), runErr))
}

func auditEntry(executed *cobra.Command, args []string, start, end time.Time, runErr error) *auditlog.Entry {
	meta := auditlog.MetadataFromContext(executed.Context())
	entry := &auditlog.Entry{
		Timestamp:   start.UTC(),
		Command:     executed.CommandPath(),
		Args:        strings.Join(auditlog.SanitizeArgs(args), " "),
		Profile:     meta.Profile,
		SubjectType: meta.SubjectType,
		SubjectID:   meta.SubjectID,
		SubjectName: meta.SubjectName,
		ActionKind:  meta.ActionKind,
		ActionID:    meta.ActionID,
		ActionState: meta.ActionState,
		Outcome:     auditlog.Outcome(runErr != nil, meta.ActionState),
		DurationMs:  end.Sub(start).Milliseconds(),
	}
	if runErr != nil {
		entry.Detail = domain.UserMessage(runErr)
	}
	return entry
}
