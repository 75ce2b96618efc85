package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	DefaultAPIURL      = "http://localhost:8080/api/v1"
	DefaultGraceWindow = 5 * time.Second
	DefaultLogLevel    = "warn"
	DefaultProfile     = "default"

	minGraceWindow = 500 * time.Millisecond
	maxGraceWindow = 5 * time.Minute
)

// Settings is the effective runtime configuration: file values with
// environment overrides applied and defaults filled in.
type Settings struct {
	APIURL      string
	GraceWindow time.Duration
	LogLevel    zerolog.Level
	Profile     string
}

// Resolve layers ROSTER_* environment variables (and an optional .env file
// in the working directory) over cfg and parses the result. A nil cfg is
// treated as an empty file.
func Resolve(cfg *Config) (Settings, error) {
	_ = godotenv.Load()

	if cfg == nil {
		cfg = &Config{}
	}

	v := viper.New()
	v.SetEnvPrefix("ROSTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("api_url", orDefault(cfg.APIURL, DefaultAPIURL))
	v.SetDefault("grace_window", orDefault(cfg.GraceWindow, DefaultGraceWindow.String()))
	v.SetDefault("log_level", orDefault(cfg.LogLevel, DefaultLogLevel))
	v.SetDefault("profile", orDefault(cfg.Profile, DefaultProfile))

	apiURL := strings.TrimRight(strings.TrimSpace(v.GetString("api_url")), "/")
	if err := validateURL(apiURL); err != nil {
		return Settings{}, fmt.Errorf("config: api-url: %w", err)
	}

	grace, err := parseGraceWindow(v.GetString("grace_window"))
	if err != nil {
		return Settings{}, fmt.Errorf("config: grace-window: %w", err)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v.GetString("log_level"))))
	if err != nil {
		return Settings{}, fmt.Errorf("config: log-level: %w", err)
	}

	profile := strings.TrimSpace(v.GetString("profile"))
	if profile == "" {
		profile = DefaultProfile
	}

	return Settings{
		APIURL:      apiURL,
		GraceWindow: grace,
		LogLevel:    level,
		Profile:     profile,
	}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func validateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func parseGraceWindow(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d < minGraceWindow || d > maxGraceWindow {
		return 0, fmt.Errorf("must be between %s and %s, got %s", minGraceWindow, maxGraceWindow, d)
	}
	return d, nil
}

func validateLogLevel(raw string) error {
	_, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	return err
}
