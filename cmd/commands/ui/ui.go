// Package ui starts the full-screen roster.
package ui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"stopro/roster/cmd/commands/cmdutil"
	"stopro/roster/internal/app"
	"stopro/roster/internal/config"
	"stopro/roster/internal/logging"
	"stopro/roster/internal/observability"
	"stopro/roster/internal/tui"
)

// NewCommand returns the "ui" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive roster",
		Long: `Open the full-screen roster of students and groups.

Deletions and removals stay undoable for the grace window; press u to undo
the latest one. Logs are written to ~/.config/roster/roster.log.

Examples:
  roster ui
  roster ui --profile work
  roster ui --metrics-addr 127.0.0.1:9464`,
		Args:         cobra.NoArgs,
		RunE:         runUI,
		SilenceUsage: true,
	}

	cmdutil.AddProfileFlag(cmd)
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while the UI runs")

	return cmd
}

func runUI(cmd *cobra.Command, args []string) error {
	if !cmdutil.Interactive(cmd) {
		return fmt.Errorf("roster ui needs a terminal")
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(dir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	profile, _ := cmd.Flags().GetString("profile")
	env, err := app.Load(profile, logFile)
	if err != nil {
		return err
	}
	if err := env.RequireSession(); err != nil {
		return cmdutil.Friendly(err)
	}

	addr, _ := cmd.Flags().GetString("metrics-addr")
	if addr == "" {
		return tui.RunRosterApp(env)
	}

	// Bind before the TUI takes the screen so a busy port fails the command
	// right away.
	ln, err := listenMetrics(addr)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		env.Logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return tui.RunRosterApp(env)
	})
	return g.Wait()
}

func listenMetrics(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics server: %w", err)
	}
	return ln, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", observability.Handler())
	return mux
}
