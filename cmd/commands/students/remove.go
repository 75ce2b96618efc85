package students

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/tui"
)

func RemoveFromGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove-from-group [student]",
		Aliases: []string{"ungroup"},
		Short:   "Take a student out of their group",
		Long: `Take a student out of their group. The change is saved at once; undoing
it within the window puts the student back.

Examples:
  roster students remove-from-group "Иван Петров"
  roster students ungroup 3f2a9c --yes`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runRemoveFromGroup,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	cmdutil.AddYesFlag(cmd)

	return cmd
}

func runRemoveFromGroup(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt, err := cmdutil.Runtime(cmd, env)
	if err != nil {
		return err
	}
	defer rt.Close()

	inGroup := func(s domain.Student) bool { return s.GroupID != nil }
	st, err := resolveStudent(cmd, rt, args, "Кого исключить из группы?", inGroup)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Отменено.")
		return nil
	}
	if err != nil {
		return err
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectStudent, st.ID, st.FullName())

	pa, err := rt.Service.RemoveFromGroup(cmd.Context(), st.ID)
	if err != nil {
		return cmdutil.Cancelled(cmd.OutOrStdout(), err)
	}
	return cmdutil.Await(cmd, rt, pa)
}
