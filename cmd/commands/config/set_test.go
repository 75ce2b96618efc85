package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"stopro/roster/internal/config"
)

// setupTestConfig points the config package at a temp file and returns its path.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_GraceWindow(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "grace-window", "10s")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `grace-window set to "10s"`) {
		t.Errorf("expected confirmation, got: %s", stdout)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.GraceWindow != "10s" {
		t.Errorf("expected GraceWindow %q, got %q", "10s", cfg.GraceWindow)
	}
}

func TestSet_APIURL_KeepsCase(t *testing.T) {
	setupTestConfig(t)

	execConfig(t, "set", "API-URL", "https://Stopro.example/API/v1")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.APIURL != "https://Stopro.example/API/v1" {
		t.Errorf("expected value stored verbatim, got %q", cfg.APIURL)
	}
}

func TestSet_RejectsInvalidValue(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"grace-window", "forever"},
		{"grace-window", "1ms"},
		{"api-url", "ftp://example.com"},
		{"log-level", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			path := setupTestConfig(t)

			_, stderr := execConfig(t, "set", tt.key, tt.value)

			if !strings.Contains(stderr, "invalid value for "+tt.key) {
				t.Errorf("expected validation error, got: %s", stderr)
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			if got := config.Lookup(tt.key).Get(cfg); got != "" {
				t.Errorf("expected nothing saved, got %q", got)
			}
		})
	}
}

func TestSet_EmptyValueResets(t *testing.T) {
	path := setupTestConfig(t)
	if err := (&config.Config{GraceWindow: "10s"}).SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	stdout, _ := execConfig(t, "set", "grace-window", "")

	if !strings.Contains(stdout, "reset to default") {
		t.Errorf("expected reset message, got: %s", stdout)
	}
	cfg, _ := config.LoadFrom(path)
	if cfg.GraceWindow != "" {
		t.Errorf("expected GraceWindow cleared, got %q", cfg.GraceWindow)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}
