package groups

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
		Use:   "delete [group]",
		Short: "Delete a group",
		Long: `Delete a group. Its students stay on the roster without a group. The
delete is sent at once; undoing it within the window recreates the group
and moves the students back.

Examples:
  roster groups delete
  roster groups delete 9А --yes`,
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

	g, err := resolveGroup(cmd, rt, firstArg(args), "Какую группу удалить?")
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(cmd.OutOrStdout(), "Отменено.")
		return nil
	}
	if err != nil {
		return err
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectGroup, g.ID, g.Name)

	pa, err := rt.Service.DeleteGroup(cmd.Context(), g.ID)
	if err != nil {
		return cmdutil.Cancelled(cmd.OutOrStdout(), err)
	}
	return cmdutil.Await(cmd, rt, pa)
}
