package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#4A76A8")
	colorCyan    = lipgloss.Color("#00B7C3")
	colorGreen   = lipgloss.Color("#3FB950")
	colorYellow  = lipgloss.Color("#D29922")
	colorRed     = lipgloss.Color("#F85149")
	colorMagenta = lipgloss.Color("#BC8CFF")
	colorDim     = lipgloss.Color("#8B949E")

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorMagenta)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

// Color helpers for inline text
var (
	Cyan    = labelStyle.Render
	Yellow  = valueStyle.Render
	Red     = errorStyle.Render
	Green   = successStyle.Render
	Magenta = highlightStyle.Render
	Dim     = dimStyle.Render
)
