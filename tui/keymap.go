package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the comparator.
type KeyMap struct {
	Quit      key.Binding
	NextFocus key.Binding
	PrevFocus key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Clear     key.Binding
	OnlyDiff  key.Binding
	Refresh   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		OnlyDiff: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "only differences"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Toggle, k.Clear, k.OnlyDiff, k.Refresh, k.Quit}
}

// FullHelp returns all bindings grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.NextFocus, k.PrevFocus, k.Clear},
		{k.OnlyDiff, k.Refresh, k.Quit},
	}
}
