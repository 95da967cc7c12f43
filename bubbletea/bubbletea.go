// Package bubbletea provides a Bubble Tea TUI for an interactive session.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/mcpcli"
	"github.com/fwojciec/mcpcli/session"
)

// DispatchFunc handles one line of operator input. The onEvent callback is
// called for each event the turn produces. It blocks until the turn
// completes or ctx is cancelled, and returns mcpcli.ErrSessionClosed once
// the session has ended.
type DispatchFunc func(ctx context.Context, input string, onEvent func(mcpcli.Event)) error

// SessionDispatch adapts a session loop to a DispatchFunc. A turn that
// closes the loop (such as /quit) reports ErrSessionClosed.
func SessionDispatch(l *session.Loop) DispatchFunc {
	return func(ctx context.Context, input string, onEvent func(mcpcli.Event)) error {
		if err := l.Dispatch(ctx, input, session.OnEvent(onEvent)); err != nil {
			return err
		}
		if l.State() == session.StateClosed {
			return mcpcli.ErrSessionClosed
		}
		return nil
	}
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. When ctx is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a session event for delivery to the Bubble Tea model.
type StreamEventMsg struct {
	Event mcpcli.Event
}

// DispatchDoneMsg signals that a dispatched turn has completed.
type DispatchDoneMsg struct {
	Err error
}
