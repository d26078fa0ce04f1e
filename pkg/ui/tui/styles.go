package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	neonCyan   = lipgloss.Color("#00FFFF")
	neonGreen  = lipgloss.Color("#39FF14")
	neonOrange = lipgloss.Color("#FF9F1C")
	neonRed    = lipgloss.Color("#FF3864")
	dimWhite   = lipgloss.Color("#AAAAAA")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Padding(0, 1)

	scopeStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Italic(true)

	okStyle = lipgloss.NewStyle().
		Foreground(neonGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(neonRed)

	counterStyle = lipgloss.NewStyle().
			Foreground(neonOrange).
			Bold(true)

	lastItemStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	doneStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true).
			Padding(1, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Padding(1, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonCyan).
			Padding(1, 2)
)
