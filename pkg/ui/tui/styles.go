package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accent    = lipgloss.Color("#00D7FF")
	highlight = lipgloss.Color("#FF5FD7")
	good      = lipgloss.Color("#5FFF87")
	caution   = lipgloss.Color("#FFAF00")
	bad       = lipgloss.Color("#FF5F5F")
	muted     = lipgloss.Color("#8A8A8A")

	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(highlight).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	successStyle = lipgloss.NewStyle().Foreground(good).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(caution).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)

	activeItemStyle = lipgloss.NewStyle().
			Foreground(good).
			PaddingLeft(2)

	doneItemStyle = lipgloss.NewStyle().
			Foreground(muted).
			Faint(true).
			PaddingLeft(2)

	logTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(1)
)

// statusStyle colors a scraping job status
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "finished":
		return successStyle
	case "failed", "stopped":
		return errorStyle
	case "shelved":
		return warningStyle
	default:
		return valueStyle
	}
}

// levelColor colors a log level
func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return bad
	case "WARN":
		return caution
	case "SUCCESS":
		return good
	case "INFO":
		return accent
	default:
		return muted
	}
}
