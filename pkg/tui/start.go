package tui

import (
	"context"
	"fmt"

	"roaster/pkg/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the terminal UI until the user quits.
func Start(ctx context.Context, o *orchestrator.Orchestrator, version string) error {
	Version = version
	m := initialModel(ctx, o)
	defer o.Unsubscribe(m.sub)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
