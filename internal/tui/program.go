package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"travelbot/internal/chat"
)

// Run shows the chat screen until the user quits or ctx ends
func Run(ctx context.Context, coord *chat.Coordinator, opts Options) error {
	p := tea.NewProgram(New(ctx, coord, opts), tea.WithAltScreen(), tea.WithContext(ctx))

	// Mutations made inside Update (Begin) notify on the event loop
	// goroutine, so sending must not block it.
	unsubscribe := coord.Session().Subscribe(func(s chat.State) {
		go p.Send(stateMsg(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}
