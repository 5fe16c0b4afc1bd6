// Package themes holds the lipgloss styles used by the wallet TUI.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Normal      lipgloss.Style
	Bold        lipgloss.Style
	Muted       lipgloss.Style
	Selected    lipgloss.Style
	Income      lipgloss.Style
	Expense     lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Focused     lipgloss.Style
	Blurred     lipgloss.Style
	RoundedBox  lipgloss.Style
	Modal       lipgloss.Style
	StatusError lipgloss.Style
	StatusInfo  lipgloss.Style
	Primary     lipgloss.Color
	Border      lipgloss.Color
	Error       lipgloss.Color
	Success     lipgloss.Color
}

// Default is the default theme.
var Default = Theme{
	Primary: lipgloss.Color("#4A56E2"),
	Border:  lipgloss.Color("#404040"),
	Error:   lipgloss.Color("#FF6596"),
	Success: lipgloss.Color("#24CCA7"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fafafa")),
	Bold: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4A56E2")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Income: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#24CCA7")),
	Expense: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6596")),

	TabActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		Background(lipgloss.Color("#4A56E2")).
		Padding(0, 2),
	TabInactive: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")).
		Padding(0, 2),

	Focused: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4A56E2")).
		Bold(true),
	Blurred: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")),

	RoundedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(1, 2),
	Modal: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#4A56E2")).
		Padding(1, 3),

	StatusError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF6596")).
		Bold(true),
	StatusInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3b82f6")).
		Bold(true),
}
