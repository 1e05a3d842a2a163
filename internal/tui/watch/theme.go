package watch

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles for the watch TUI.
type Theme struct {
	Title        lipgloss.Style
	Border       lipgloss.Style
	Dim          lipgloss.Style
	Highlight    lipgloss.Style
	StatusOK     lipgloss.Style
	StatusFailed lipgloss.Style
	StatusAsync  lipgloss.Style
}

// NewDefaultTheme returns the standard color scheme.
func NewDefaultTheme() Theme {
	return Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		Highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")),
		StatusOK: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		StatusFailed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		StatusAsync: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
	}
}
