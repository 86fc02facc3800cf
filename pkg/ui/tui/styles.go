package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Weibo brand orange on a dark slate
	accent    = lipgloss.Color("#FF8200")
	accentDim = lipgloss.Color("#E6162D")
	green     = lipgloss.Color("#3DDC84")
	highlight = lipgloss.Color("#FFD24D")
	warn      = lipgloss.Color("#FFA94D")
	fail      = lipgloss.Color("#FF4D4F")
	slate     = lipgloss.Color("#15171C")
	slate2    = lipgloss.Color("#23262E")
	muted     = lipgloss.Color("#A8ABB3")

	baseStyle = lipgloss.NewStyle().
			Background(slate).
			Foreground(muted)

	logoStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentDim).
			Background(slate2).
			Padding(1, 2)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(highlight)

	successStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(fail).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warn).
			Bold(true)

	seedActiveStyle = lipgloss.NewStyle().
			Foreground(green).
			Bold(true).
			PaddingLeft(2)

	seedIdleStyle = lipgloss.NewStyle().
			Foreground(muted).
			Faint(true).
			PaddingLeft(2)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	logMessageStyle = lipgloss.NewStyle().
			Foreground(muted)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)

	titleStyle = lipgloss.NewStyle().
			Background(accentDim).
			Foreground(slate).
			Bold(true).
			Padding(0, 1)
)

// levelColor picks the log level color
func levelColor(level string) lipgloss.Color {
	switch level {
	case "SUCCESS":
		return green
	case "WARN":
		return warn
	case "ERROR":
		return fail
	default:
		return accent
	}
}
