// Package tui provides the interactive prompts used by claude-launcher, built
// on Bubble Tea, with a shared lipgloss theme.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	// ColorPrimary is the accent used for the cursor and titles
	ColorPrimary = lipgloss.Color("173")

	ColorSuccess = lipgloss.Color("42")
	ColorError   = lipgloss.Color("196")
	ColorWarning = lipgloss.Color("214")
	ColorMuted   = lipgloss.Color("240")
)

var (
	// TitleStyle is used for prompt titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SelectedStyle is used for the active list item
	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// MutedStyle is used for hints and secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	labelStyle = lipgloss.NewStyle().Bold(true)
)

const (
	StatusSuccess = "[OK]"

	// ListCursor marks the active row in a list
	ListCursor = ">"
)

// RenderTitle renders text with the title style
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSuccess renders a success message with its status prefix
func RenderSuccess(text string) string {
	return SuccessStyle.Render(StatusSuccess + " " + text)
}

func RenderMuted(text string) string {
	return MutedStyle.Render(text)
}

// RenderStatusLine renders "label: value", coloring value by status
// ("success", "error", "warning" or anything else for plain).
func RenderStatusLine(label, value, status string) string {
	styled := value
	switch status {
	case "success":
		styled = SuccessStyle.Render(value)
	case "error":
		styled = ErrorStyle.Render(value)
	case "warning":
		styled = WarningStyle.Render(value)
	}
	return labelStyle.Render(label+":") + " " + styled
}
