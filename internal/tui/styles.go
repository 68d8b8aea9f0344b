// Package tui holds the interactive terminal pieces of barre: the dancer
// conflict confirmation prompt and the styles shared with the calendar grid.
package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles derived from a theme.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Conflict lipgloss.Style
	Danger   lipgloss.Style
	Question lipgloss.Style
	Box      lipgloss.Style
	Border   lipgloss.Style
}

// NewStyles builds styles for t.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Color(t.Accent)),
		Header:   lipgloss.NewStyle().Bold(true).Foreground(Color(t.Accent)).Padding(0, 1),
		Text:     lipgloss.NewStyle().Foreground(Color(t.Fg)),
		Muted:    lipgloss.NewStyle().Foreground(Color(t.Muted)),
		Conflict: lipgloss.NewStyle().Foreground(Color(t.Warning)),
		Danger:   lipgloss.NewStyle().Bold(true).Foreground(Color(t.Danger)),
		Question: lipgloss.NewStyle().Bold(true).Foreground(Color(t.Fg)),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Color(t.Warning)).
			Padding(0, 1),
		Border: lipgloss.NewStyle().Foreground(Color(t.Border)),
	}
}
