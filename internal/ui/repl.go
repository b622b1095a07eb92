package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"travelbot/internal/chat"
	"travelbot/internal/terminal"
)

// REPL is the line-mode conversation loop
type REPL struct {
	coord    *chat.Coordinator
	display  *Display
	input    *terminal.LineReader
	endpoint string
	logger   *zap.Logger
}

// NewREPL creates a loop reading user lines from in
func NewREPL(coord *chat.Coordinator, display *Display, in io.Reader, endpoint string, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		coord:    coord,
		display:  display,
		input:    terminal.NewLineReader(in),
		endpoint: endpoint,
		logger:   logger,
	}
}

// Run reads and sends lines until the user quits, input ends or fails, or
// ctx is cancelled. Turns are sent one at a time; the display follows the session
// through its subscription.
func (r *REPL) Run(ctx context.Context) error {
	unsubscribe := r.coord.Session().Subscribe(r.display.Apply)
	defer unsubscribe()

	r.display.PrintWelcome(r.endpoint)

	for {
		r.display.PrintPrompt()
		line, err := r.input.ReadLine(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				// A broken input stream ends the session like EOF does.
				r.logger.Error("reading input failed", zap.Error(err))
				r.display.PrintError(fmt.Errorf("reading input: %w", err))
			}
			break
		}

		// Handle commands
		switch strings.TrimSpace(line) {
		case "/exit", "/quit", "exit", "quit":
			r.display.PrintGoodbye()
			return nil
		case "/clear":
			r.display.ClearScreen()
			r.display.PrintWelcome(r.endpoint)
			continue
		case "/history":
			r.display.PrintHistory(r.coord.Session().Snapshot())
			continue
		case "/help":
			r.display.PrintHelp()
			continue
		}

		out := r.coord.Send(ctx, line)
		if out.Status == chat.Failed {
			r.logger.Debug("send failed", zap.Uint64("seq", out.Seq), zap.Error(out.Err))
		}
	}

	r.display.PrintGoodbye()
	return nil
}
