package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

const defaultWidth = 80

// Decision is the answer given to a confirmation prompt.
type Decision int

const (
	Undecided Decision = iota
	Confirmed
	Cancelled
)

// ConfirmModel asks whether to schedule a placement despite dancer
// conflicts. Each line describes one double-booked dancer.
type ConfirmModel struct {
	title    string
	lines    []string
	question string

	keys     confirmKeyMap
	help     help.Model
	styles   Styles
	width    int
	decision Decision
}

// NewConfirm builds the prompt.
func NewConfirm(title string, lines []string, theme Theme) ConfirmModel {
	styles := NewStyles(theme)
	h := help.New()
	h.Styles.ShortKey = styles.Text
	h.Styles.ShortDesc = styles.Muted
	h.Styles.FullKey = styles.Text
	h.Styles.FullDesc = styles.Muted

	return ConfirmModel{
		title:    title,
		lines:    lines,
		question: "Schedule anyway?",
		keys:     defaultConfirmKeys(),
		help:     h,
		styles:   styles,
		width:    defaultWidth,
	}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = max(msg.Width-4, 20)
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.decision = Confirmed
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
			m.decision = Cancelled
			return m, tea.Quit
		case key.Matches(msg, m.keys.More):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// View implements tea.Model. It renders nothing once answered so the
// prompt disappears from the terminal.
func (m ConfirmModel) View() string {
	if m.decision != Undecided {
		return ""
	}

	// border and padding take two columns on each side
	inner := max(m.width-4, 20)

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(ansi.Truncate(m.title, inner, "…")))
	b.WriteString("\n\n")
	for _, line := range m.lines {
		b.WriteString(m.styles.Conflict.Render(ansi.Truncate("• "+line, inner, "…")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Question.Render(m.question))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return m.styles.Box.Render(b.String()) + "\n"
}

// Decision reports the answer, Undecided until a key is pressed.
func (m ConfirmModel) Decision() Decision {
	return m.decision
}

// Confirm runs m on in and out and reports whether the user accepted.
// Cancelling ctx aborts the prompt with an error.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, m ConfirmModel) (bool, error) {
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}
	cm, ok := final.(ConfirmModel)
	return ok && cm.Decision() == Confirmed, nil
}
