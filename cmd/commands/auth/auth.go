package auth

import (
	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to the platform",
		Long: `Sign in to the platform and manage the stored session.

Sessions are kept in the OS keychain, one per profile.`,
	}

	cmdutil.AddProfileFlag(cmd)

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
