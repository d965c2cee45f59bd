package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the calendar UI.
	Listen string `yaml:"listen" json:"listen"`

	// APIURL is the base URL of the remote appointment collection
	// (GET/POST on the base, DELETE on base/{id}).
	APIURL string `yaml:"api_url" json:"api_url"`

	// Timezone is the IANA timezone used to decide what "today" is.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in calendar views. Supported values:
	//   - "sunday" (default, pt-BR convention)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is an optional cron-style schedule (e.g. "*/15 * * * *")
	// that reloads the appointment list from the remote store. Empty
	// disables periodic reloads.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// RequestTimeoutSeconds bounds each remote store call. Zero means no
	// client-side timeout.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`

	// StateDir holds small local state such as the theme preference.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

const (
	defaultListen   = "127.0.0.1:8080"
	defaultAPIURL   = "http://127.0.0.1:3000/agendamentos"
	defaultTimezone = "America/Sao_Paulo"
	defaultStateDir = "./var/sisvei"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    defaultListen,
		APIURL:    defaultAPIURL,
		Timezone:  defaultTimezone,
		WeekStart: "sunday",
		StateDir:  defaultStateDir,
		LogLevel:  "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "sunday"
	}
	c.RefreshCron = strings.TrimSpace(c.RefreshCron)
	if c.RequestTimeoutSeconds < 0 {
		c.RequestTimeoutSeconds = 0
	}
	if c.StateDir == "" {
		c.StateDir = defaultStateDir
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
}

// ApplyEnv overrides file values with SISVEI_* environment variables.
// The lookup function is injectable so tests do not touch the process env.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup("SISVEI_API_URL"); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup("SISVEI_LISTEN"); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup("SISVEI_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	c.Normalize()
}

// Weekday is WeekStart as a time.Weekday.
func (c *Config) Weekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves Timezone. On failure it returns time.Local together
// with the lookup error.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// RequestTimeout is RequestTimeoutSeconds as a duration; zero means none.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is unmarshaled and defaults are normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: write the defaults so operators have a file to edit
			// (api_url in particular almost always needs changing).
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Normalizes cfg first, so the file on disk never carries values the
//     server would silently replace at startup.
//   - Creates the parent directory (0700) if missing.
//   - Writes a temp file in the same directory, fsyncs it, chmods it to
//     0600 and renames it over path, so a crash mid-write leaves either
//     the old or the new file and never a truncated one.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Same directory as the target: rename is only atomic within one
	// filesystem.
	tmp, err := os.CreateTemp(dir, ".sisvei-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// After a successful rename this is a no-op.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	// Flush before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// The config may carry an internal API URL; keep it owner-only.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function:
//
//	cfg, _ := config.Load(path)
//	cfg.RefreshCron = "*/10 * * * *"
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
