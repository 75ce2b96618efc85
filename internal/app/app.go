// Package app assembles what a command needs to talk to the platform:
// resolved settings, a logger, the session store, the API client and, for
// roster commands, the undo controller with its journal.
package app

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"stopro/roster/internal/api"
	"stopro/roster/internal/config"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/logging"
	"stopro/roster/internal/observability"
	"stopro/roster/internal/pendingstore"
	"stopro/roster/internal/roster"
	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/services/pending"
	"stopro/roster/internal/swrcache"
	"stopro/roster/internal/undo"
)

// ErrNotLoggedIn is returned when the profile has no stored session.
var ErrNotLoggedIn = errors.New("not logged in (run: roster auth login)")

var (
	mu        sync.RWMutex
	storeOver auth.Store
)

// SetStore replaces the keychain store. Intended for tests.
func SetStore(s auth.Store) {
	mu.Lock()
	defer mu.Unlock()
	storeOver = s
}

// Reset restores the keychain store. Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	storeOver = nil
}

// Store returns the session store in effect.
func Store() auth.Store {
	mu.RLock()
	defer mu.RUnlock()
	if storeOver != nil {
		return storeOver
	}
	return auth.DefaultStore()
}

// Env is the per-invocation environment.
type Env struct {
	Settings config.Settings
	Logger   zerolog.Logger
	Store    auth.Store
	Client   *api.Client
}

// Load resolves configuration and builds the API client. profile, when
// non-empty, overrides the configured profile. Logs go to logOut.
func Load(profile string, logOut io.Writer) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	settings, err := config.Resolve(cfg)
	if err != nil {
		return nil, err
	}
	if profile != "" {
		settings.Profile = profile
	}
	return New(settings, logging.Console(logOut, settings.LogLevel)), nil
}

// New builds an Env from already resolved settings.
func New(settings config.Settings, logger zerolog.Logger) *Env {
	store := Store()
	profile := auth.NormalizeProfile(settings.Profile)
	clientLog := logging.Component(logger, "api")

	client := api.New(settings.APIURL,
		api.WithTokenSource(auth.TokenSource(store, profile)),
		api.WithUnauthorizedHook(func() {
			if err := store.DeleteToken(profile); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
				clientLog.Warn().Err(err).Msg("failed to discard rejected session")
				return
			}
			clientLog.Info().Str("profile", profile).Msg("session rejected by the server, logged out")
		}),
		api.WithLogger(clientLog),
		api.WithObserver(observability.Recorder{}),
	)

	return &Env{Settings: settings, Logger: logger, Store: store, Client: client}
}

// Profile is the normalized session profile.
func (e *Env) Profile() string {
	return auth.NormalizeProfile(e.Settings.Profile)
}

// Session returns the stored session of the profile.
func (e *Env) Session() (domain.Session, error) {
	s, err := auth.LoadSession(e.Store, e.Profile())
	if errors.Is(err, auth.ErrTokenNotFound) {
		return domain.Session{}, ErrNotLoggedIn
	}
	return s, err
}

// RequireSession fails with ErrNotLoggedIn when no session is stored, so
// commands stop before arming anything.
func (e *Env) RequireSession() error {
	_, err := e.Session()
	return err
}

// Journal opens the pending-action journal of the profile.
func (e *Env) Journal() (*pending.Service, error) {
	repo, err := pendingstore.Open()
	if err != nil {
		return nil, err
	}
	return pending.NewService(repo, e.Profile(), e.Client, logging.Component(e.Logger, "journal")), nil
}

// RuntimeOptions tune the roster runtime.
type RuntimeOptions struct {
	// Gate confirms destructive actions. Nil cancels every one of them.
	Gate roster.Gate

	// OnNotify runs after every notification change.
	OnNotify func()

	// OnChange runs after every change of the roster view.
	OnChange func()

	// Notifiers receive notifications in addition to the board.
	Notifiers []undo.Notifier
}

// Runtime is the roster service with its controller, notification board
// and journal.
type Runtime struct {
	Service    *roster.Service
	Controller *undo.Controller
	Board      *undo.Board
	journal    *pending.Service
}

// Roster builds the runtime. A journal that cannot be opened is logged
// and skipped; the controller then works without persistence.
func (e *Env) Roster(opts RuntimeOptions) *Runtime {
	board := undo.NewBoard(opts.OnNotify)

	notifiers := undo.Fanout{board}
	notifiers = append(notifiers, opts.Notifiers...)

	ctrlOpts := []undo.Option{
		undo.WithGraceWindow(e.Settings.GraceWindow),
		undo.WithLogger(logging.Component(e.Logger, "undo")),
		undo.WithNotifier(notifiers),
		undo.WithObserver(observability.Recorder{}),
	}

	journal, err := e.Journal()
	if err != nil {
		e.Logger.Warn().Err(err).Msg("pending-action journal unavailable")
	} else {
		ctrlOpts = append(ctrlOpts, undo.WithJournal(journal))
	}

	ctrl := undo.NewController(ctrlOpts...)

	svcOpts := []roster.Option{
		roster.WithCache(swrcache.NewDefault(e.Profile())),
		roster.WithLogger(logging.Component(e.Logger, "roster")),
	}
	if opts.Gate != nil {
		svcOpts = append(svcOpts, roster.WithGate(opts.Gate))
	}
	if opts.OnChange != nil {
		svcOpts = append(svcOpts, roster.WithOnChange(opts.OnChange))
	}

	return &Runtime{
		Service:    roster.New(e.Client, ctrl, svcOpts...),
		Controller: ctrl,
		Board:      board,
		journal:    journal,
	}
}

// Close tears the controller down (armed actions are journaled as
// torn_down) and releases the journal.
func (r *Runtime) Close() error {
	r.Controller.Close()
	if r.journal == nil {
		return nil
	}
	if err := r.journal.Close(); err != nil {
		return fmt.Errorf("app: failed to close journal: %w", err)
	}
	return nil
}
