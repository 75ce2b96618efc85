// Package audit lists and prunes the local record of roster commands that
// changed something.
package audit

import "github.com/spf13/cobra"

// NewCommand returns the "audit" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the history of changes made with roster",
		Long: "Every sign-in, deletion and group change made with roster is recorded\n" +
			"locally with its outcome.\n\n" +
			"The history is stored in ~/.config/roster/roster.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
