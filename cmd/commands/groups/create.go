package groups

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
)

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Long: `Create a group. Names are trimmed and inner whitespace is collapsed.

Examples:
  roster groups create "9А"
  roster groups create "10 Б" -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runCreate,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt := env.Roster(app.RuntimeOptions{})
	defer rt.Close()

	var g *domain.Group
	err = cmdutil.Call(cmd, "Создание группы...", func(ctx context.Context) error {
		var err error
		g, err = rt.Service.CreateGroup(ctx, args[0])
		return err
	})
	if err != nil {
		return cmdutil.Friendly(err)
	}
	cmdutil.Audit(cmd, env, auditlog.SubjectGroup, g.ID, g.Name)

	if output, _ := cmd.Flags().GetString("output"); strings.EqualFold(output, "json") {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(g)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Группа «%s» создана (ID %s)\n", g.Name, g.ID)
	return nil
}
