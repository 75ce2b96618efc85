package auth

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/tui"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show who is signed in under the profile, their role and when the
session expires.

Example:
  roster auth status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cmdutil.Env(cmd)
			if err != nil {
				return err
			}

			if cmdutil.Interactive(cmd) {
				if err := tui.RunAuthStatus(env.Store, env.Profile()); err != nil {
					return fmt.Errorf("auth status failed: %w", err)
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, row := range tui.AuthStatusRows(env.Store, env.Profile(), time.Now()) {
				fmt.Fprintf(w, "%s:\t%s\n", row.Label, row.Value)
			}
			return w.Flush()
		},
		SilenceUsage: true,
	}

	return cmd
}
