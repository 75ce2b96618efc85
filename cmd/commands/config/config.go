package config

import (
	"github.com/spf13/cobra"

	"stopro/roster/internal/config"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage roster configuration",
		Long: "View and modify persistent roster settings.\n\n" +
			"Configuration is stored at ~/.config/roster/config.json. Environment\n" +
			"variables (ROSTER_API_URL, ROSTER_GRACE_WINDOW, ROSTER_LOG_LEVEL,\n" +
			"ROSTER_PROFILE) and a .env file in the working directory override it.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
