package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
)

// DefaultTheme is used when no theme is configured.
const DefaultTheme = "mocha"

// Theme holds the colors used by prompts and the calendar grid.
type Theme struct {
	Name    string `toml:"name"`
	Fg      string `toml:"fg"`      // Primary foreground
	Muted   string `toml:"muted"`   // Secondary text, empty days
	Accent  string `toml:"accent"`  // Titles, headers
	Warning string `toml:"warning"` // Dancer conflicts
	Danger  string `toml:"danger"`  // Room conflicts, rejections
	Border  string `toml:"border"`  // Box and table borders
}

// Catppuccin flavours.
var builtinThemes = map[string]Theme{
	"mocha": {
		Name: "mocha", Fg: "#cdd6f4", Muted: "#6c7086", Accent: "#cba6f7",
		Warning: "#fab387", Danger: "#f38ba8", Border: "#45475a",
	},
	"macchiato": {
		Name: "macchiato", Fg: "#cad3f5", Muted: "#6e738d", Accent: "#c6a0f6",
		Warning: "#f5a97f", Danger: "#ed8796", Border: "#494d64",
	},
	"frappe": {
		Name: "frappe", Fg: "#c6d0f5", Muted: "#737994", Accent: "#ca9ee6",
		Warning: "#ef9f76", Danger: "#e78284", Border: "#51576d",
	},
	"latte": {
		Name: "latte", Fg: "#4c4f69", Muted: "#9ca0b0", Accent: "#8839ef",
		Warning: "#fe640b", Danger: "#d20f39", Border: "#bcc0cc",
	},
}

// Themes lists the built-in theme names.
func Themes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ThemeByName returns a built-in theme. Unknown names fall back to the
// default theme and report false.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		name = DefaultTheme
	}
	t, ok := builtinThemes[strings.ToLower(name)]
	if !ok {
		return builtinThemes[DefaultTheme], false
	}
	return t, true
}

// ParseTheme reads a theme from TOML. Missing colors are taken from the
// default theme.
func ParseTheme(data []byte) (Theme, error) {
	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return Theme{}, fmt.Errorf("parsing theme: %w", err)
	}

	base := builtinThemes[DefaultTheme]
	for _, f := range []struct{ dst, src *string }{
		{&t.Fg, &base.Fg},
		{&t.Muted, &base.Muted},
		{&t.Accent, &base.Accent},
		{&t.Warning, &base.Warning},
		{&t.Danger, &base.Danger},
		{&t.Border, &base.Border},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}
	if t.Name == "" {
		t.Name = "custom"
	}
	return t, nil
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}
