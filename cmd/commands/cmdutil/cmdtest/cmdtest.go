// Package cmdtest points the roster commands at a fake backend and
// temporary local state for tests.
package cmdtest

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"stopro/roster/internal/api/apitest"
	"stopro/roster/internal/app"
	"stopro/roster/internal/config"
	"stopro/roster/internal/database"
	"stopro/roster/internal/domain"
	"stopro/roster/internal/services/auth"
	"stopro/roster/internal/swrcache"
)

// Token is the access token Setup stores and the server requires.
const Token = "cmdtest-token"

// Setup redirects config, database, cache and keychain into a temp dir,
// configures srv as the API with a short grace window, and returns the
// in-memory session store. No session is stored; see Login.
func Setup(t *testing.T, srv *apitest.Server) *auth.MockStore {
	t.Helper()
	dir := t.TempDir()

	config.SetPath(filepath.Join(dir, "config.json"))
	t.Cleanup(config.ResetPath)
	cfg := &config.Config{APIURL: srv.URL(), GraceWindow: "500ms", LogLevel: "error"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	database.SetPath(filepath.Join(dir, "roster.db"))
	t.Cleanup(database.ResetPath)

	swrcache.SetDir(filepath.Join(dir, "cache"))
	t.Cleanup(swrcache.ResetDir)

	store := auth.NewMockStore()
	app.SetStore(store)
	t.Cleanup(app.Reset)

	srv.Token = Token
	return store
}

// Login stores a session for the default profile.
func Login(t *testing.T, store auth.Store, srv *apitest.Server) {
	t.Helper()
	err := auth.SaveSession(store, config.DefaultProfile, domain.Session{AccessToken: Token, User: srv.User})
	if err != nil {
		t.Fatalf("failed to save session: %v", err)
	}
}

// Exec runs cmd with args and returns what it wrote to stdout and stderr.
func Exec(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
