package groups

import (
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
)

func RenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <group> <new-name>",
		Short: "Rename a group",
		Long: `Rename a group given by ID or current name.

Examples:
  roster groups rename 9А "9А (профиль)"`,
		Args:         cobra.ExactArgs(2),
		RunE:         runRename,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	return cmd
}

func runRename(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt := env.Roster(app.RuntimeOptions{})
	defer rt.Close()

	g, err := resolveGroup(cmd, rt, args[0], "")
	if err != nil {
		return err
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectGroup, g.ID, g.Name)

	renamed, err := rt.Service.RenameGroup(cmd.Context(), g.ID, args[1])
	if err != nil {
		return cmdutil.Friendly(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Группа «%s» переименована в «%s»\n", g.Name, renamed.Name)
	return nil
}
