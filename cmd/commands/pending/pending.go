// Package pending holds the commands that inspect and finish journaled
// destructive actions.
package pending

import (
	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
)

// NewCommand returns the "pending" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and finish interrupted deletions",
		Long: "Every destructive action is journaled locally while its undo window is\n" +
			"open. A deletion left unfinished by an interrupted run stays in the\n" +
			"journal until `roster pending resume` completes it.\n\n" +
			"The journal is stored in ~/.config/roster/roster.db.",
		SilenceUsage: true,
	}

	cmdutil.AddProfileFlag(cmd)

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ResumeCommand())

	return cmd
}
