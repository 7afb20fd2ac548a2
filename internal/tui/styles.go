package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("25")).
			Foreground(lipgloss.Color("255"))

	// Rows with forks.
	parentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("44"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	forkLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true).
			Padding(1, 2)
)
