package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gimbal-ghost/gimbal-ghost/events"
)

// Styling functions using lipgloss
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Bold(true).
			Padding(0, 2).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	ProcessingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// StatusStyle picks the style a flight status is printed with
func StatusStyle(status events.Status) lipgloss.Style {
	switch status {
	case events.StatusComplete:
		return SuccessStyle
	case events.StatusError:
		return ErrorStyle
	case events.StatusRendering:
		return ProcessingStyle
	case events.StatusParsing, events.StatusParsed:
		return InfoStyle
	default:
		return MutedStyle
	}
}

// StatusIcon is the marker shown next to a flight
func StatusIcon(status events.Status) string {
	switch status {
	case events.StatusComplete:
		return "✓"
	case events.StatusError:
		return "❌"
	case events.StatusRendering:
		return "🎬"
	default:
		return "🔄"
	}
}
