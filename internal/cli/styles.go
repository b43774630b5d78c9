// Package cli renders ledger output for the terminal and reads operator input.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. PrimaryColor matches the GCash app blue.
var (
	PrimaryColor = lipgloss.Color("#007DFE")
	SuccessColor = lipgloss.Color("#2EC4B6")
	WarningColor = lipgloss.Color("#FFBF47")
	ErrorColor   = lipgloss.Color("#E63946")
	InfoColor    = lipgloss.Color("#8ECAE6")
	SubtleColor  = lipgloss.Color("#6C757D")
	borderColor  = lipgloss.Color("#3A3F44")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Text styles shared by the CLI and the form.
var (
	TitleStyle   = fg(PrimaryColor).Bold(true).MarginBottom(1)
	SuccessStyle = fg(SuccessColor)
	WarningStyle = fg(WarningColor)
	ErrorStyle   = fg(ErrorColor)
	InfoStyle    = fg(InfoColor)
	SubtleStyle  = fg(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)
	PromptStyle  = fg(PrimaryColor).Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)

	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	TableHeaderStyle = TableCellStyle.Foreground(PrimaryColor).Bold(true)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	WalletIcon  = "📱"
	CashIcon    = "💵"
	ChartIcon   = "📊"
	InIcon      = "↓"
	OutIcon     = "↑"
)

func tagged(style lipgloss.Style, icon, message string) string {
	return style.Render(icon + " " + message)
}

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string { return tagged(SuccessStyle, SuccessIcon, message) }

// FormatError prefixes message with a cross.
func FormatError(message string) string { return tagged(ErrorStyle, ErrorIcon, message) }

// FormatWarning prefixes message with a warning sign.
func FormatWarning(message string) string { return tagged(WarningStyle, WarningIcon, message) }

// FormatInfo prefixes message with an info sign.
func FormatInfo(message string) string { return tagged(InfoStyle, InfoIcon, message) }

// FormatTitle renders a section heading.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatPrompt renders the question shown before reading a line.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox draws content inside a rounded border under a heading.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
