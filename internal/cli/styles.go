// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7C5CFF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))
)

// Icons.
const (
	SuccessIcon   = "✓"
	ErrorIcon     = "✗"
	WarningIcon   = "⚠️"
	DuplicateIcon = "≈"
	MoneyIcon     = "💸"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(MoneyIcon + " " + title)
}

// StyleSubtle formats text as less prominent.
func StyleSubtle(text string) string {
	return SubtleStyle.Render(text)
}
