package pending

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/pendingstore"
	"stopro/roster/internal/util"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unfinished actions",
		Long: `List journaled actions of the profile that may still owe a server call.
With --all, the most recent actions of every profile are shown whatever
their state.

Examples:
  roster pending list
  roster pending list --all --limit 50`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("all", false, "Show recent actions in every state and profile")
	cmd.Flags().Int("limit", 25, "Number of actions shown with --all")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	env, err := cmdutil.Env(cmd)
	if err != nil {
		return err
	}
	journal, err := env.Journal()
	if err != nil {
		return err
	}
	defer journal.Close()

	var records []pendingstore.Record
	if all {
		records, err = journal.ListRecent(limit)
	} else {
		records, err = journal.ListUnresolved()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "Незавершённых действий нет.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ARMED\tPROFILE\tKIND\tSUBJECT\tSTATE\tDETAIL")
	fmt.Fprintln(w, "-----\t-------\t----\t-------\t-----\t------")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Profile,
			r.Kind,
			subject(r),
			r.State,
			util.OrDash(r.Detail),
		)
	}
	return w.Flush()
}

func subject(r pendingstore.Record) string {
	if r.SubjectName == "" {
		return util.OrDash(r.SubjectID)
	}
	return fmt.Sprintf("%s (%s)", r.SubjectName, r.SubjectID)
}
