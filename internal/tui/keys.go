package tui

import "github.com/charmbracelet/bubbles/key"

type confirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
	More    key.Binding
	Quit    key.Binding
}

func defaultConfirmKeys() confirmKeyMap {
	return confirmKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "schedule anyway"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc", "enter"),
			key.WithHelp("n/esc", "cancel"),
		),
		More: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k confirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel, k.More}
}

// FullHelp implements help.KeyMap.
func (k confirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Cancel},
		{k.More, k.Quit},
	}
}
