package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the colour palette, taken from the web page.
type Theme struct {
	Primary   lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Selected  lipgloss.Color
	Differs   lipgloss.Color
	LeftTint  lipgloss.Color
	RightTint lipgloss.Color
	Error     lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#2563EB"),
		Muted:     lipgloss.Color("#6B7280"),
		Border:    lipgloss.Color("#D1D5DB"),
		Selected:  lipgloss.Color("#10B981"),
		Differs:   lipgloss.Color("#F59E0B"),
		LeftTint:  lipgloss.Color("#EF4444"),
		RightTint: lipgloss.Color("#3B82F6"),
		Error:     lipgloss.Color("#DC2626"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Muted    lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Disabled lipgloss.Style
	Error    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Differs  lipgloss.Style
	Left     lipgloss.Style
	Right    lipgloss.Style
	Border   lipgloss.Style
	Help     lipgloss.Style
}

// DefaultStyles returns styles built from the default theme.
func DefaultStyles() Styles {
	t := DefaultTheme()
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Subtitle: lipgloss.NewStyle().Foreground(t.Muted),
		Label:    lipgloss.NewStyle().Foreground(t.Muted).Width(8),
		Focused:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Width(8),
		Muted:    lipgloss.NewStyle().Foreground(t.Muted),
		Cursor:   lipgloss.NewStyle().Bold(true),
		Selected: lipgloss.NewStyle().Foreground(t.Selected),
		Disabled: lipgloss.NewStyle().Foreground(t.Border),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Header:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
		Differs:  lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(t.Differs),
		Left:     lipgloss.NewStyle().Padding(0, 1).Foreground(t.LeftTint),
		Right:    lipgloss.NewStyle().Padding(0, 1).Foreground(t.RightTint),
		Border:   lipgloss.NewStyle().Foreground(t.Border),
		Help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
	}
}
