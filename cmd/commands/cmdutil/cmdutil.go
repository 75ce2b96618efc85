// Package cmdutil holds what the roster commands share: the session
// profile flag, confirmation, the undo window and outcome reporting.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stopro/roster/internal/app"
	"stopro/roster/internal/auditlog"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/roster"
	"stopro/roster/internal/tui"
	"stopro/roster/internal/undo"
)

// AuditAnnotation marks commands whose runs are written to the audit log.
const AuditAnnotation = "audit"

// ErrConfirmationRequired is returned by destructive commands that cannot
// prompt and were not given --yes.
var ErrConfirmationRequired = errors.New("confirmation required: run in a terminal or pass --yes")

// AddProfileFlag registers --profile on cmd and its children.
func AddProfileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("profile", "", "Session profile (default: config value or \"default\")")
}

// AddYesFlag registers --yes on a destructive command.
func AddYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

// Env loads the environment for cmd's --profile. Logs go to stderr.
func Env(cmd *cobra.Command) (*app.Env, error) {
	profile, _ := cmd.Flags().GetString("profile")
	return app.Load(profile, cmd.ErrOrStderr())
}

// SessionEnv is Env that also requires a stored session.
func SessionEnv(cmd *cobra.Command) (*app.Env, error) {
	env, err := Env(cmd)
	if err != nil {
		return nil, err
	}
	if err := env.RequireSession(); err != nil {
		return nil, err
	}
	return env, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether cmd may prompt: both stdin and its output
// are terminals.
func Interactive(cmd *cobra.Command) bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && IsTerminal(cmd.OutOrStdout())
}

// Gate picks the confirmation gate for a destructive command.
func Gate(cmd *cobra.Command) (roster.Gate, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return roster.AssumeYes, nil
	}
	if !Interactive(cmd) {
		return nil, ErrConfirmationRequired
	}
	return tui.FormGate{Accessible: tui.Accessible()}, nil
}

// Runtime builds the roster runtime for a destructive command, asking for
// confirmation the way Gate decides.
func Runtime(cmd *cobra.Command, env *app.Env) (*app.Runtime, error) {
	gate, err := Gate(cmd)
	if err != nil {
		return nil, err
	}
	return env.Roster(app.RuntimeOptions{Gate: gate}), nil
}

// Call runs fn behind a spinner on stderr when cmd is interactive and
// plainly otherwise.
func Call(cmd *cobra.Command, title string, fn func(ctx context.Context) error) error {
	if !Interactive(cmd) {
		return fn(cmd.Context())
	}
	return tui.Spin(cmd.Context(), cmd.ErrOrStderr(), title, fn)
}

// Audit attaches the subject of a command to its audit entry. subjectType
// is one of the auditlog.Subject constants.
func Audit(cmd *cobra.Command, env *app.Env, subjectType, id, name string) {
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Profile:     env.Profile(),
		SubjectType: subjectType,
		SubjectID:   id,
		SubjectName: name,
	}))
}

// Await keeps the command alive through the undo window of pa and reports
// how the action ended. The final state goes into the audit entry; an
// interrupted wait leaves it armed.
func Await(cmd *cobra.Command, rt *app.Runtime, pa undo.PendingAction) error {
	auditAction(cmd, pa, undo.StateArmed)
	out := cmd.OutOrStdout()
	interactive := Interactive(cmd)
	if !interactive {
		fmt.Fprintf(out, "%s. Отмена возможна %s\n", pa.Message, pa.GraceWindow.Round(time.Millisecond))
	}

	state, err := tui.RunUndoWindow(cmd.Context(), rt.Service, pa, out, interactive)
	if err != nil {
		return fmt.Errorf("%s: прервано, завершите командой roster pending resume: %w", pa.SubjectName, err)
	}
	auditAction(cmd, pa, state)
	return Report(out, pa, state)
}

func auditAction(cmd *cobra.Command, pa undo.PendingAction, state undo.State) {
	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		ActionKind:  string(pa.Kind),
		ActionID:    pa.ID,
		ActionState: string(state),
	}))
}

// Cancelled reports a declined confirmation. It returns nil for
// roster.ErrCancelled and err otherwise.
func Cancelled(w io.Writer, err error) error {
	if errors.Is(err, roster.ErrCancelled) {
		fmt.Fprintln(w, "Отменено.")
		return nil
	}
	return Friendly(err)
}

// Report prints the final state of pa. A failed or interrupted deferred
// delete is an error pointing at pending resume.
func Report(w io.Writer, pa undo.PendingAction, state undo.State) error {
	switch state {
	case undo.StateUndone:
		fmt.Fprintf(w, "Отменено: %s\n", pa.SubjectName)
	case undo.StateExpired, undo.StateFinalized:
		fmt.Fprintf(w, "✓ %s\n", pa.Message)
	case undo.StateReplaced:
		fmt.Fprintf(w, "%s: заменено следующим действием\n", pa.SubjectName)
	case undo.StateFinalizeFailed:
		return fmt.Errorf("%s, повторите: roster pending resume", roster.DeleteFailedMessage(pa.SubjectName))
	case undo.StateTornDown:
		return fmt.Errorf("%s: не завершено, выполните roster pending resume", pa.SubjectName)
	default:
		return fmt.Errorf("%s: неожиданное состояние %q", pa.SubjectName, state)
	}
	return nil
}

// Friendly wraps err so it prints as the message a user should see while
// errors.Is still reaches the cause.
func Friendly(err error) error {
	if err == nil {
		return nil
	}
	var f friendlyError
	if errors.As(err, &f) {
		return err
	}
	return friendlyError{err: err}
}

type friendlyError struct{ err error }

func (e friendlyError) Error() string { return domain.UserMessage(e.err) }
func (e friendlyError) Unwrap() error { return e.err }
