package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/javiermolinar/barre/internal/calendar"
)

// clearEnv blanks every override so tests do not depend on the caller's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BARRE_DAY_START", "BARRE_DAY_END", "BARRE_DEFAULT_VIEW", "BARRE_DEFAULT_DURATION",
		"BARRE_DB_PATH", "BARRE_COLOR", "BARRE_THEME", "NO_COLOR",
		"BARRE_LOG_LEVEL", "BARRE_LOG_FORMAT", "BARRE_LOG_FILE", "BARRE_METRICS_TEXTFILE",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Studio.DayStart != "08:00" {
		t.Errorf("expected day_start 08:00, got %s", cfg.Studio.DayStart)
	}
	if cfg.Studio.DayEnd != "22:00" {
		t.Errorf("expected day_end 22:00, got %s", cfg.Studio.DayEnd)
	}
	if cfg.ViewMode() != calendar.ViewWeek {
		t.Errorf("expected default view week, got %s", cfg.ViewMode())
	}
	if cfg.Studio.DefaultDuration != 60 {
		t.Errorf("expected default duration 60, got %d", cfg.Studio.DefaultDuration)
	}
	if cfg.UI.Color != "auto" {
		t.Errorf("expected color auto, got %s", cfg.UI.Color)
	}
	if cfg.Metrics.Textfile != "" {
		t.Errorf("expected metrics disabled, got %s", cfg.Metrics.Textfile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return defaults
	if cfg.Studio.DayStart != "08:00" {
		t.Errorf("expected default day_start, got %s", cfg.Studio.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[studio]
day_start = "09:30"
day_end = "21:00"
default_view = "month"
default_duration = 45

[storage]
db_path = "/tmp/test.db"

[ui]
color = "never"

[log]
level = "debug"
format = "json"

[metrics]
textfile = "/tmp/barre.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Studio.DayStart != "09:30" {
		t.Errorf("expected day_start 09:30, got %s", cfg.Studio.DayStart)
	}
	if cfg.ViewMode() != calendar.ViewMonth {
		t.Errorf("expected view month, got %s", cfg.ViewMode())
	}
	if cfg.Studio.DefaultDuration != 45 {
		t.Errorf("expected default duration 45, got %d", cfg.Studio.DefaultDuration)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.UI.Color != "never" {
		t.Errorf("expected color never, got %s", cfg.UI.Color)
	}
	opts := cfg.LoggingOptions()
	if opts.Level != "debug" || opts.Format != "json" {
		t.Errorf("unexpected logging options: %+v", opts)
	}
	if cfg.Metrics.Textfile != "/tmp/barre.prom" {
		t.Errorf("expected metrics textfile, got %s", cfg.Metrics.Textfile)
	}

	start, end := cfg.OpeningHours()
	if start.String() != "09:30" || end.String() != "21:00" {
		t.Errorf("unexpected opening hours %s-%s", start, end)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[studio\nday_start="), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BARRE_DAY_START", "07:00")
	t.Setenv("BARRE_DEFAULT_VIEW", "4day")
	t.Setenv("BARRE_DEFAULT_DURATION", "90")
	t.Setenv("BARRE_DB_PATH", "/tmp/env.db")
	t.Setenv("BARRE_LOG_LEVEL", "info")
	t.Setenv("NO_COLOR", "1")

	cfg, err := LoadFrom("/nonexistent/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Studio.DayStart != "07:00" {
		t.Errorf("expected day_start 07:00 from env, got %s", cfg.Studio.DayStart)
	}
	if cfg.ViewMode() != calendar.ViewFourDay {
		t.Errorf("expected view 4day from env, got %s", cfg.ViewMode())
	}
	if cfg.Studio.DefaultDuration != 90 {
		t.Errorf("expected duration 90 from env, got %d", cfg.Studio.DefaultDuration)
	}
	if cfg.Storage.DBPath != "/tmp/env.db" {
		t.Errorf("expected db_path from env, got %s", cfg.Storage.DBPath)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info from env, got %s", cfg.Log.Level)
	}
	if cfg.UI.Color != "never" {
		t.Errorf("expected NO_COLOR to force color never, got %s", cfg.UI.Color)
	}
}

func TestLoadFrom_BadDurationEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BARRE_DEFAULT_DURATION", "an hour")

	if _, err := LoadFrom("/nonexistent/config.toml"); err == nil {
		t.Error("expected error for non-numeric duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"invalid day_start", func(c *Config) { c.Studio.DayStart = "9am" }},
		{"day_start after day_end", func(c *Config) { c.Studio.DayStart, c.Studio.DayEnd = "18:00", "09:00" }},
		{"day_start equals day_end", func(c *Config) { c.Studio.DayEnd = c.Studio.DayStart }},
		{"unknown view", func(c *Config) { c.Studio.DefaultView = "year" }},
		{"zero duration", func(c *Config) { c.Studio.DefaultDuration = 0 }},
		{"duration over a day", func(c *Config) { c.Studio.DefaultDuration = 1441 }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"unknown color", func(c *Config) { c.UI.Color = "rainbow" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot get home directory")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test.db", filepath.Join(home, "test.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.toml")

	cfg := Default()
	cfg.Studio.DayStart = "10:00"
	cfg.Studio.DefaultView = "day"
	cfg.Storage.DBPath = "/custom/path.db"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Studio.DayStart != "10:00" {
		t.Errorf("expected day_start 10:00, got %s", loaded.Studio.DayStart)
	}
	if loaded.ViewMode() != calendar.ViewDay {
		t.Errorf("expected view day, got %s", loaded.ViewMode())
	}
	if loaded.Storage.DBPath != "/custom/path.db" {
		t.Errorf("expected db_path /custom/path.db, got %s", loaded.Storage.DBPath)
	}
}
