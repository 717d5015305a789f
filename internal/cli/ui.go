package cli

import "github.com/charmbracelet/lipgloss"

// Shared color palette for the interactive editor.
var (
	colorCyan   = lipgloss.Color("6")
	colorRed    = lipgloss.Color("1")
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorDim    = lipgloss.Color("8")
)

// Editor styles.
var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleHeading  = lipgloss.NewStyle().Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleDeadlock = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleSafe     = lipgloss.NewStyle().Foreground(colorGreen)
	styleError    = lipgloss.NewStyle().Foreground(colorRed)
	styleWarn     = lipgloss.NewStyle().Foreground(colorYellow)
	stylePrompt   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)
