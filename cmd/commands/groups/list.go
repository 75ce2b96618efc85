package groups

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
		Short: "List groups",
		Long: `List the groups of the signed-in teacher with their student counts.

Examples:
  roster groups list
  roster groups list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

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

	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		err = rt.Service.Refresh(cmd.Context())
	} else {
		err = rt.Service.Load(cmd.Context())
	}
	if err != nil {
		return cmdutil.Friendly(err)
	}

	groups := rt.Service.Groups()
	if output == "json" {
		if groups == nil {
			groups = []domain.Group{}
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(groups)
	}

	if len(groups) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No groups found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTUDENTS\tINVITE CODE")
	fmt.Fprintln(w, "--\t----\t--------\t-----------")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Name, g.StudentsCount, util.OrDash(g.InviteCode))
	}
	return w.Flush()
}
