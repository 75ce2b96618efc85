package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/tui"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in with your platform email and password and store the session in
the local keychain.

In a terminal without flags, a sign-in form opens. Otherwise the email
comes from --email and the password from --password or a hidden prompt.

Examples:
  roster auth login
  roster auth login --email teacher@school.ru
  roster auth login --profile work --email teacher@school.ru`,
		Args:         cobra.NoArgs,
		RunE:         runLogin,
		SilenceUsage: true,
		Annotations:  map[string]string{cmdutil.AuditAnnotation: "true"},
	}

	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Env(cmd)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	email = strings.TrimSpace(email)

	signIn := func(ctx context.Context, email, password string) (*domain.Session, error) {
		return signInAndStore(ctx, env, email, password)
	}

	var session *domain.Session
	if password == "" && cmdutil.Interactive(cmd) {
		if email == "" {
			session, err = tui.RunAuthLogin(env.Profile(), email, signIn)
			if err != nil {
				return err
			}
			if session == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Вход отменён.")
				return nil
			}
			return reportLogin(cmd, env, session)
		}
		fmt.Fprint(cmd.OutOrStdout(), "Пароль: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		password = string(raw)
	}

	if email == "" {
		return errors.New("email is required (--email)")
	}
	if password == "" {
		return errors.New("password is required (--password or a terminal prompt)")
	}

	session, err = signIn(cmd.Context(), email, password)
	if err != nil {
		return cmdutil.Friendly(err)
	}
	return reportLogin(cmd, env, session)
}

// signInAndStore exchanges credentials and keeps the session under the
// env's profile.
func signInAndStore(ctx context.Context, env *app.Env, email, password string) (*domain.Session, error) {
	session, err := env.Client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if session.User.Role != "" && session.User.Role != domain.RoleTeacher {
		return nil, fmt.Errorf("roster работает только с учётными записями учителей (роль %s)", session.User.Role)
	}
	if err := auth.SaveSession(env.Store, env.Profile(), *session); err != nil {
		return nil, err
	}
	return session, nil
}

func reportLogin(cmd *cobra.Command, env *app.Env, session *domain.Session) error {
	cmdutil.Audit(cmd, env, auditlog.SubjectSession, session.User.ID, session.User.Email)

	name := strings.TrimSpace(session.User.FirstName + " " + session.User.LastName)
	if name == "" {
		name = session.User.Email
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Вход выполнен: %s (профиль %s)\n", name, env.Profile())
	return nil
}
