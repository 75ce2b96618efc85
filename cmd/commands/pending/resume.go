package pending

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/services/pending"
)

func ResumeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Finish deletions left by an interrupted run",
		Long: `Issue the server calls still owed by journaled actions of the profile.
Actions whose undo window may still be open in another process are
skipped. Resolved entries older than a week are pruned afterwards.

Examples:
  roster pending resume
  roster pending resume --profile work`,
		Args:         cobra.NoArgs,
		RunE:         runResume,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	return cmd
}

func runResume(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return cmdutil.Friendly(err)
	}
	journal, err := env.Journal()
	if err != nil {
		return err
	}
	defer journal.Close()

	records, err := journal.ListUnresolved()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "Незавершённых действий нет.")
		return nil
	}

	cmdutil.Audit(cmd, env, auditlog.SubjectPending, "", fmt.Sprintf("%d action(s)", len(records)))

	var failed []error
	done, skipped := 0, 0
	for i := range records {
		r := &records[i]
		err := journal.Resume(cmd.Context(), r, time.Now(), out)
		switch {
		case err == nil:
			done++
		case errors.Is(err, pending.ErrStillArmed):
			skipped++
			fmt.Fprintf(out, "  %s: окно отмены ещё открыто, пропущено\n", r.SubjectName)
		default:
			failed = append(failed, fmt.Errorf("%s: %w", r.SubjectName, cmdutil.Friendly(err)))
		}
	}

	if removed, err := journal.Cleanup(pending.RetentionPeriod); err != nil {
		env.Logger.Warn().Err(err).Msg("failed to prune pending journal")
	} else if removed > 0 {
		env.Logger.Debug().Int64("removed", removed).Msg("pruned resolved pending actions")
	}

	fmt.Fprintf(out, "Завершено: %d, пропущено: %d, ошибок: %d\n", done, skipped, len(failed))
	return errors.Join(failed...)
}
