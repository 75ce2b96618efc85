package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.WarnLevel)

	logger.Info().Msg("hidden")
	logger.Warn().Str("kind", "delete_student").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line leaked at warn level: %s", out)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", out, err)
	}
	if entry["message"] != "shown" || entry["kind"] != "delete_student" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, zerolog.DebugLevel), "undo")
	logger.Debug().Msg("armed")

	if !strings.Contains(buf.String(), `"component":"undo"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestConsole_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := Console(&buf, zerolog.InfoLevel)
	logger.Info().Msg("ready")

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI escapes, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "ready") {
		t.Errorf("expected message, got %q", buf.String())
	}
}

func TestOpenFile_CreatesAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "roster")

	for _, msg := range []string{"first", "second"} {
		f, err := OpenFile(dir)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		logger := New(f, zerolog.InfoLevel)
		logger.Info().Msg(msg)
		if err := f.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("expected 2 lines, got %d: %s", got, data)
	}
}
