package students

import (
	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
)

// NewCommand returns the "students" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List and manage students",
		Long: `List students and take them out of groups or delete them.

Destructive commands ask for confirmation and then keep an undo window
open (press u to undo). A deleted student is only removed on the server
once the window closes.`,
	}

	cmdutil.AddProfileFlag(cmd)

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(RemoveFromGroupCommand())

	return cmd
}
