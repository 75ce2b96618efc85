package groups

import (
	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
)

// NewCommand returns the "groups" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List and manage groups",
		Long: `List, create, rename and delete groups and add students to them.

Deleting a group keeps an undo window open; undoing it recreates the group
(with a new ID) and moves its former members back.`,
	}

	cmdutil.AddProfileFlag(cmd)

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(ShowCommand())
	cmd.AddCommand(CreateCommand())
	cmd.AddCommand(RenameCommand())
	cmd.AddCommand(DeleteCommand())
	cmd.AddCommand(AddStudentsCommand())

	return cmd
}
