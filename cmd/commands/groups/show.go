package groups

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/tui"
	"stopro/roster/internal/util"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [group]",
		Short: "Show a group and its members",
		Long: `Show a group and list its members.

Examples:
  roster groups show 9А`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runShow,
		SilenceUsage: true,
	}

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.SessionEnv(cmd)
	if err != nil {
		return err
	}
	rt := env.Roster(app.RuntimeOptions{})
	defer rt.Close()

	g, err := resolveGroup(cmd, rt, firstArg(args), "Какую группу показать?")
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Группа:  %s\n", g.Name)
	fmt.Fprintf(out, "ID:      %s\n", g.ID)
	if g.InviteCode != "" {
		fmt.Fprintf(out, "Код:     %s\n", g.InviteCode)
	}

	members := rt.Service.Members(g.ID)
	if len(members) == 0 {
		fmt.Fprintln(out, "\nВ группе нет учеников.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	fmt.Fprintln(w, "--\t----\t-----")
	for _, s := range members {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.FullName(), util.OrDash(s.Email))
	}
	return w.Flush()
}
