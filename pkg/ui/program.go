package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"rolltodo/pkg/config"
	"rolltodo/pkg/state"
)

// Run starts the interactive UI and blocks until the user quits.
func Run(ctx context.Context, mgr *state.Manager, cfg config.Config, styles config.Styles) error {
	p := tea.NewProgram(NewModel(ctx, mgr, cfg, styles), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := mgr.Subscribe(Forward(p.Send))
	defer unsubscribe()

	_, err := p.Run()
	return err
}
