package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/barre/internal/config"
	"github.com/javiermolinar/barre/internal/tui"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  barre config`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipSetup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			return runConfigInteractive(path, a.in, cmd.OutOrStdout())
		},
	}
}

func runConfigInteractive(configPath string, in io.Reader, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	if errors.Is(fileErr, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Studio.DayStart = promptValue(reader, out, "Day start", cfg.Studio.DayStart)
	cfg.Studio.DayEnd = promptValue(reader, out, "Day end", cfg.Studio.DayEnd)
	cfg.Studio.DefaultView = promptValue(reader, out, "Default view (day, 4day, week, month)", cfg.Studio.DefaultView)
	cfg.Studio.DefaultDuration = promptInt(reader, out, "Default duration (minutes)", cfg.Studio.DefaultDuration)
	cfg.Storage.DBPath = promptValue(reader, out, "Database path", cfg.Storage.DBPath)
	cfg.UI.Color = promptValue(reader, out, "Color (auto, always, never)", cfg.UI.Color)
	cfg.UI.Theme = promptTheme(reader, out, cfg.UI.Theme)
	cfg.Log.Level = promptValue(reader, out, "Log level", cfg.Log.Level)
	cfg.Metrics.Textfile = promptValue(reader, out, "Metrics textfile (empty to disable)", cfg.Metrics.Textfile)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(out io.Writer, cfg *config.Config) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }

	p("Current configuration:\n")
	p("──────────────────────\n")
	p("[studio]\n")
	p("  day_start        = %s\n", cfg.Studio.DayStart)
	p("  day_end          = %s\n", cfg.Studio.DayEnd)
	p("  default_view     = %s\n", cfg.Studio.DefaultView)
	p("  default_duration = %d\n", cfg.Studio.DefaultDuration)
	p("\n[storage]\n")
	p("  db_path          = %s\n", cfg.Storage.DBPath)
	p("\n[ui]\n")
	p("  color            = %s\n", cfg.UI.Color)
	p("  theme            = %s\n", cfg.UI.Theme)
	p("\n[log]\n")
	p("  level            = %s\n", cfg.Log.Level)
	p("  format           = %s\n", cfg.Log.Format)
	if cfg.Log.File != "" {
		p("  file             = %s\n", cfg.Log.File)
	}
	if cfg.Metrics.Textfile != "" {
		p("\n[metrics]\n")
		p("  textfile         = %s\n", cfg.Metrics.Textfile)
	}
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current == "" {
		_, _ = fmt.Fprintf(out, "  %s: ", label)
	} else {
		_, _ = fmt.Fprintf(out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, current int) int {
	for {
		value := promptValue(reader, out, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		_, _ = fmt.Fprintf(out, "  Not a number: %q\n", value)
		if exhausted(reader) {
			return current
		}
	}
}

func promptTheme(reader *bufio.Reader, out io.Writer, current string) string {
	options := strings.Join(tui.Themes(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := promptValue(reader, out, label, current)
		if _, ok := tui.ThemeByName(value); ok {
			return strings.ToLower(value)
		}
		if strings.HasSuffix(value, ".toml") {
			return value
		}
		_, _ = fmt.Fprintf(out, "  Invalid theme %q. Available: %s\n", value, options)
		if exhausted(reader) {
			return tui.DefaultTheme
		}
	}
}

// exhausted reports whether there is no more input to retry with.
func exhausted(reader *bufio.Reader) bool {
	_, err := reader.Peek(1)
	return err != nil
}
