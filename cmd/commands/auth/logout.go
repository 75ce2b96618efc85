package auth

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/swrcache"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Long: `Sign out on the server (best effort), remove the session of the
profile from the keychain and drop its cached roster.

Examples:
  roster auth logout
  roster auth logout --profile work`,
		Args:         cobra.NoArgs,
		RunE:         runLogout,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	return cmd
}

func runLogout(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Env(cmd)
	if err != nil {
		return err
	}

	if err := env.RequireSession(); err != nil {
		if errors.Is(err, app.ErrNotLoggedIn) {
			fmt.Fprintf(cmd.OutOrStdout(), "Профиль %s: вход не выполнен.\n", env.Profile())
			return nil
		}
		return err
	}

	if err := env.Client.Logout(cmd.Context()); err != nil {
		env.Logger.Warn().Err(err).Msg("server-side logout failed")
	}
	if err := env.Store.DeleteToken(env.Profile()); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	if err := swrcache.NewDefault(env.Profile()).Clear(); err != nil {
		env.Logger.Warn().Err(err).Msg("failed to clear cached roster")
	}

	cmdutil.Audit(cmd, env, auditlog.SubjectSession, "", env.Profile())
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Выход выполнен (профиль %s)\n", env.Profile())
	return nil
}
