package students

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/util"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Long: `List the students of the signed-in teacher.

Examples:
  roster students list
  roster students list --group 9А
  roster students list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().String("group", "", "Only students of this group (ID or name)")
	cmd.Flags().Bool("refresh", false, "Bypass the local cache")
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt := env.Roster(app.RuntimeOptions{})
	defer rt.Close()

	ctx := cmd.Context()
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		err = rt.Service.Refresh(ctx)
	} else {
		err = rt.Service.Load(ctx)
	}
	if err != nil {
		return cmdutil.Friendly(err)
	}

	students := rt.Service.Students()
	if ref, _ := cmd.Flags().GetString("group"); ref != "" {
		g, err := rt.Service.FindGroup(ctx, ref)
		if err != nil {
			return cmdutil.Friendly(err)
		}
		students = rt.Service.Members(g.ID)
	}

	if output == "json" {
		if students == nil {
			students = []domain.Student{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(students)
	}

	if len(students) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No students found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGROUP\tEMAIL")
	fmt.Fprintln(w, "--\t----\t-----\t-----")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.FullName(), util.OrDash(s.GroupName), util.OrDash(s.Email))
	}
	return w.Flush()
}
