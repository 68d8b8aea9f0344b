package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/javiermolinar/barre/internal/tui"
)

// Color definitions for consistent styling across the CLI.
var (
	// Committed placements and successful saves
	colorOK = color.New(color.FgGreen)

	// Advisory dancer overlaps
	colorWarn = color.New(color.FgYellow)

	// Rejections and room double-bookings
	colorError = color.New(color.FgRed, color.Bold)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// fdWriter is satisfied by *os.File.
type fdWriter interface {
	Fd() uintptr
}

// isTerminal reports whether v is attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(fdWriter)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// termWidth returns the width of out, or a default if detection fails.
func termWidth(out io.Writer) int {
	f, ok := out.(fdWriter)
	if !ok {
		return 100
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

// applyColorMode sets up fatih/color and lipgloss for "auto", "always" or
// "never". noColor forces never.
func applyColorMode(mode string, noColor bool, out io.Writer) {
	if noColor {
		mode = "never"
	}
	switch mode {
	case "always":
		EnableColor()
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never":
		DisableColor()
	default:
		if isTerminal(out) && os.Getenv("TERM") != "dumb" {
			EnableColor()
			lipgloss.SetColorProfile(termenv.NewOutput(out).EnvColorProfile())
		} else {
			DisableColor()
		}
	}
}

// theme resolves the configured theme: a built-in name or the path of a
// TOML theme file. Anything unreadable falls back to the default.
func (a *App) theme() tui.Theme {
	name := a.config.UI.Theme
	if t, ok := tui.ThemeByName(name); ok || !strings.HasSuffix(name, ".toml") {
		return t
	}
	data, err := os.ReadFile(name)
	if err == nil {
		var t tui.Theme
		if t, err = tui.ParseTheme(data); err == nil {
			return t
		}
	}
	a.logger.Warn("falling back to default theme", "theme", name, "err", err)
	t, _ := tui.ThemeByName(tui.DefaultTheme)
	return t
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
	lipgloss.SetColorProfile(termenv.Ascii)
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatOK(s string) string {
	return colorOK.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

func formatError(s string) string {
	return colorError.Sprint(s)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
