package hud

import "github.com/charmbracelet/lipgloss"

var (
	colorCyan   = lipgloss.Color("51")
	colorYellow = lipgloss.Color("214")
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorDim    = lipgloss.Color("240")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorYellow)

	positiveStyle = lipgloss.NewStyle().Foreground(colorGreen)
	negativeStyle = lipgloss.NewStyle().Foreground(colorRed)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(1, 1, 0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)
