package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle is used for the panel title (bold cyan)
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// ErrorStyle is used for error messages (red)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// SuccessStyle is used for success messages (green)
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	// WarningStyle is used for abort notices (yellow)
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	// StatusStyle is used for the status bar (dark background)
	StatusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	// ItemStyle is used for installed definition paths
	ItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// ButtonStyle and ActiveButtonStyle render dialog buttons
	ButtonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 2)

	ActiveButtonStyle = ButtonStyle.
				Background(lipgloss.Color("62")).
				Bold(true)

	// DialogStyle frames confirmation prompts
	DialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)
