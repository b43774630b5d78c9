package tui

import (
	"time"

	"github.com/Veraticus/cashflow/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme    themes.Theme
	Location *time.Location
	Width    int
	Height   int
	// AltScreen runs the form full screen.
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:    themes.Default,
		Location: time.Local,
		Width:    80,
		Height:   24,
	}
}

// WithTheme sets the color theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithLocation sets the zone timestamps are shown in.
func WithLocation(loc *time.Location) Option {
	return func(c *Config) {
		c.Location = loc
	}
}

// WithSize sets the initial dimensions.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAltScreen runs the form on the alternate screen.
func WithAltScreen() Option {
	return func(c *Config) {
		c.AltScreen = true
	}
}
