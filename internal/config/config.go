// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/barre/internal/calendar"
	"github.com/javiermolinar/barre/internal/logging"
	"github.com/javiermolinar/barre/internal/schedule"
)

// Config holds the application configuration.
type Config struct {
	Studio  StudioConfig  `toml:"studio"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

// StudioConfig holds the studio's opening hours and calendar defaults.
// Weeks always start on Sunday.
type StudioConfig struct {
	DayStart        string `toml:"day_start"`        // e.g., "08:00"
	DayEnd          string `toml:"day_end"`          // e.g., "22:00"
	DefaultView     string `toml:"default_view"`     // "day", "4day", "week", "month"
	DefaultDuration int    `toml:"default_duration"` // minutes, for new routines
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	Color string `toml:"color"` // "auto", "always", "never"
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte" or a .toml file
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`   // empty means stderr
}

// MetricsConfig holds the Prometheus textfile output. An empty path
// disables metrics.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Studio: StudioConfig{
			DayStart:        "08:00",
			DayEnd:          "22:00",
			DefaultView:     string(calendar.ViewWeek),
			DefaultDuration: 60,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Color: "auto",
			Theme: "mocha",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "barre.db"
	}
	return filepath.Join(home, ".local", "share", "barre", "barre.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "barre", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Metrics.Textfile = expandPath(cfg.Metrics.Textfile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Studio overrides
	if v := os.Getenv("BARRE_DAY_START"); v != "" {
		cfg.Studio.DayStart = v
	}
	if v := os.Getenv("BARRE_DAY_END"); v != "" {
		cfg.Studio.DayEnd = v
	}
	if v := os.Getenv("BARRE_DEFAULT_VIEW"); v != "" {
		cfg.Studio.DefaultView = v
	}
	if v := os.Getenv("BARRE_DEFAULT_DURATION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BARRE_DEFAULT_DURATION must be a number of minutes, got %q", v)
		}
		cfg.Studio.DefaultDuration = n
	}

	// Storage overrides
	if v := os.Getenv("BARRE_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	// UI overrides
	if v := os.Getenv("BARRE_COLOR"); v != "" {
		cfg.UI.Color = v
	}
	if v := os.Getenv("BARRE_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.Color = "never"
	}

	// Log overrides
	if v := os.Getenv("BARRE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BARRE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BARRE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("BARRE_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	start, err := schedule.ParseClock(c.Studio.DayStart)
	if err != nil {
		return fmt.Errorf("day_start: %w", err)
	}
	end, err := schedule.ParseClock(c.Studio.DayEnd)
	if err != nil {
		return fmt.Errorf("day_end: %w", err)
	}
	if !start.Before(end) {
		return errors.New("day_start must be before day_end")
	}

	if _, err := calendar.ParseViewMode(c.Studio.DefaultView); err != nil {
		return fmt.Errorf("default_view: %w", err)
	}
	if c.Studio.DefaultDuration <= 0 || c.Studio.DefaultDuration > schedule.MinutesPerDay {
		return fmt.Errorf("default_duration must be between 1 and %d minutes, got %d",
			schedule.MinutesPerDay, c.Studio.DefaultDuration)
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.UI.Color)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format: %w", logging.ErrInvalidFormat)
	}

	return nil
}

// OpeningHours returns the parsed day start and end. Call after Validate.
func (c *Config) OpeningHours() (schedule.Clock, schedule.Clock) {
	start, _ := schedule.ParseClock(c.Studio.DayStart)
	end, _ := schedule.ParseClock(c.Studio.DayEnd)
	return start, end
}

// ViewMode returns the configured default calendar view.
func (c *Config) ViewMode() calendar.ViewMode {
	mode, err := calendar.ParseViewMode(c.Studio.DefaultView)
	if err != nil {
		return calendar.ViewWeek
	}
	return mode
}

// LoggingOptions converts the [log] section for logging.New.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
