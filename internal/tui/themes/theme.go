// Package themes holds the color schemes of the interactive form.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Label         lipgloss.Style
	FocusedLabel  lipgloss.Style
	Option        lipgloss.Style
	Selected      lipgloss.Style
	Estimate      lipgloss.Style
	Muted         lipgloss.Style
	RoundedBox    lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	Primary       lipgloss.Color
	Success       lipgloss.Color
	Error         lipgloss.Color
	Border        lipgloss.Color
}

func build(primary, success, errc, border, fg, muted lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Success: success,
		Error:   errc,
		Border:  border,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Foreground(muted).
			Width(12),
		FocusedLabel: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			Width(12),
		Option: lipgloss.NewStyle().
			Foreground(fg).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#fafafa")).
			Bold(true).
			Padding(0, 1),
		Estimate: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(1, 2),
		StatusSuccess: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(errc).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(
	lipgloss.Color("#007DFE"),
	lipgloss.Color("#10b981"),
	lipgloss.Color("#ef4444"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#737373"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(
	lipgloss.Color("#89b4fa"),
	lipgloss.Color("#a6e3a1"),
	lipgloss.Color("#f38ba8"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#6c7086"),
)

// ByName returns the named theme, or Default.
func ByName(name string) Theme {
	if name == "catppuccin" || name == "catppuccin-mocha" {
		return CatppuccinMocha
	}
	return Default
}
