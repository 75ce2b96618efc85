package students

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/tui"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [student]",
		Short: "Delete a student",
		Long: `Delete a student account. The student is hidden at once and deleted on
the server when the undo window closes. Interrupting the command leaves
the delete unsent; finish it with "roster pending resume".

The student is given by ID or by full name. Without an argument, a
picker opens in a terminal.

Examples:
  roster students delete
  roster students delete "Иван Петров"
  roster students delete 3f2a9c --yes`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	cmdutil.AddYesFlag(cmd)

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt, err := cmdutil.Runtime(cmd, env)
	if err != nil {
		return err
	}
	defer rt.Close()

	st, err := resolveStudent(cmd, rt, args, "Какого ученика удалить?", nil)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Отменено.")
		return nil
	}
	if err != nil {
		return err
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectStudent, st.ID, st.FullName())

	pa, err := rt.Service.DeleteStudent(cmd.Context(), st.ID)
	if err != nil {
		return cmdutil.Cancelled(cmd.OutOrStdout(), err)
	}
	return cmdutil.Await(cmd, rt, pa)
}
