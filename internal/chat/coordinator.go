// Package chat holds the conversation state of a travel assistant session
// and the coordinator that moves one user turn through the backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrorText is shown as the bot reply whenever a turn fails
const ErrorText = "Sorry, something went wrong reaching the travel assistant. Please try again."

// Backend sends one turn to the travel assistant
type Backend interface {
	Chat(ctx context.Context, req Request) (Reply, error)
}

// Pending is a user turn that has been shown but not yet answered
type Pending struct {
	// Seq numbers dispatched turns within the session, starting at 1
	Seq  uint64
	Turn Turn
	// Request is exactly what will be transmitted
	Request Request
}

// Status is the result category of a send
type Status int

const (
	Skipped Status = iota // empty input, nothing happened
	Answered
	Failed
)

func (s Status) String() string {
	switch s {
	case Skipped:
		return "skipped"
	case Answered:
		return "answered"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome describes how a send ended. Err is for logging only; the user
// only ever sees ErrorText.
type Outcome struct {
	Status Status
	Seq    uint64
	Err    error
}

var errBackendPanic = errors.New("backend panicked")

// Coordinator runs turns against the backend and reconciles the session
type Coordinator struct {
	session *Session
	backend Backend
	logger  *zap.Logger
}

// NewCoordinator creates a coordinator over session. A nil logger
// disables logging. The caller attaches any session fields to logger.
func NewCoordinator(session *Session, backend Backend, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		session: session,
		backend: backend,
		logger:  logger,
	}
}

// Session returns the session the coordinator mutates
func (c *Coordinator) Session() *Session {
	return c.session
}

// Begin stages a user turn: the user bubble is appended and the typing
// flag raised before anything goes over the network. It returns false,
// and changes nothing, when input is blank.
func (c *Coordinator) Begin(input string) (*Pending, bool) {
	if strings.TrimSpace(input) == "" {
		return nil, false
	}

	p := c.session.stage(input)
	c.logger.Debug("turn staged",
		zap.Uint64("seq", p.Seq),
		zap.Int("history_len", len(p.Request.History)),
		zap.Bool("has_location", p.Request.Location != nil))
	return p, true
}

// Finish dispatches a staged turn and reconciles the reply. It blocks
// until the backend answers or fails. The typing flag is lowered on every
// path, including a panicking backend.
func (c *Coordinator) Finish(ctx context.Context, p *Pending) Outcome {
	settled := false
	defer func() {
		if settled {
			return
		}
		c.session.fail(p)
		c.logger.Error("turn aborted", zap.Uint64("seq", p.Seq), zap.Error(errBackendPanic))
	}()

	reply, err := c.backend.Chat(ctx, p.Request)
	if err != nil {
		c.session.fail(p)
		settled = true
		c.logger.Warn("turn failed", zap.Uint64("seq", p.Seq), zap.Error(err))
		return Outcome{Status: Failed, Seq: p.Seq, Err: err}
	}

	c.session.commit(p, reply)
	settled = true

	fields := []zap.Field{zap.Uint64("seq", p.Seq), zap.Int("reply_len", len(reply.Response))}
	if reply.City != nil {
		fields = append(fields, zap.String("city", *reply.City))
	}
	c.logger.Info("turn answered", fields...)

	return Outcome{Status: Answered, Seq: p.Seq}
}

// Send runs Begin and Finish back to back
func (c *Coordinator) Send(ctx context.Context, input string) Outcome {
	p, ok := c.Begin(input)
	if !ok {
		return Outcome{Status: Skipped}
	}
	return c.Finish(ctx, p)
}
