package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/cashflow/internal/model"
)

// Run shows the form until the user quits and returns what was recorded.
func Run(ctx context.Context, l Ledger, opts ...Option) ([]model.Transaction, error) {
	if l == nil {
		return nil, fmt.Errorf("ledger is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	final, err := tea.NewProgram(NewModel(ctx, l, opts...), programOpts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("interactive form failed: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.Recorded(), nil
	}
	return nil, nil
}
