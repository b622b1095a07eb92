package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelbot/internal/chat"
)

type scriptedBackend struct {
	replies []chat.Reply
	errs    []error
	seen    []chat.Request
}

func (s *scriptedBackend) Chat(_ context.Context, req chat.Request) (chat.Reply, error) {
	i := len(s.seen)
	s.seen = append(s.seen, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return chat.Reply{}, s.errs[i]
	}
	return s.replies[i], nil
}

type shoutFormatter struct{}

func (shoutFormatter) Format(md string) (string, error) {
	return strings.ToUpper(md), nil
}

func newTestDisplay(out *bytes.Buffer) *Display {
	d := NewDisplay(out, shoutFormatter{}, 80, false)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return d
}

func TestDisplayPrintsOnlyNewMessages(t *testing.T) {
	var out bytes.Buffer
	d := newTestDisplay(&out)

	d.Apply(chat.State{Version: 1, Display: []chat.DisplayMessage{{Sender: chat.SenderUser, Text: "hello"}}, Typing: true})
	d.Apply(chat.State{Version: 2, Display: []chat.DisplayMessage{
		{Sender: chat.SenderUser, Text: "hello"},
		{Sender: chat.SenderBot, Text: "hi **there**"},
	}})

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "│\033[0m hello"))
	assert.Contains(t, text, "┌─ You · 09:30:00")
	assert.Contains(t, text, "┌─ TravelBot · 09:30:00")
	assert.Contains(t, text, "HI **THERE**")
	assert.Equal(t, 1, strings.Count(text, "TravelBot is typing..."))
}

func TestDisplayIgnoresStaleSnapshots(t *testing.T) {
	var out bytes.Buffer
	d := newTestDisplay(&out)

	d.Apply(chat.State{Version: 5, Display: []chat.DisplayMessage{{Sender: chat.SenderUser, Text: "new"}}})
	before := out.String()
	d.Apply(chat.State{Version: 4, Display: []chat.DisplayMessage{{Sender: chat.SenderUser, Text: "new"}, {Sender: chat.SenderBot, Text: "old"}}})

	assert.Equal(t, before, out.String())
}

func TestREPLConversation(t *testing.T) {
	city := "Paris"
	backend := &scriptedBackend{
		replies: []chat.Reply{{Response: "Flights to Paris", City: &city}, {}, {Response: "Hotels"}},
		errs:    []error{nil, errors.New("connection reset"), nil},
	}
	session := chat.NewSession()
	coord := chat.NewCoordinator(session, backend, nil)

	var out bytes.Buffer
	in := strings.NewReader("Find flights to Paris\n   \n/history\nAnything else?\nHotels please\n/exit\nnever sent\n")
	repl := NewREPL(coord, newTestDisplay(&out), in, "http://localhost:5000/chat", nil)

	require.NoError(t, repl.Run(context.Background()))

	require.Len(t, backend.seen, 3)
	assert.Equal(t, "Hotels please", backend.seen[2].Message)
	require.NotNil(t, backend.seen[2].LastKnownCity)
	assert.Equal(t, "Paris", *backend.seen[2].LastKnownCity)

	state := session.Snapshot()
	assert.Len(t, state.Turns, 4)
	assert.Len(t, state.Display, 6)
	assert.False(t, state.Typing)

	text := out.String()
	assert.Contains(t, text, "http://localhost:5000/chat")
	assert.Contains(t, text, "Ask about flights, hotels, or tours")
	assert.Contains(t, text, "Conversation History")
	assert.Contains(t, text, "Last known city:\033[0m Paris")
	assert.Contains(t, text, strings.ToUpper(chat.ErrorText))
	assert.Contains(t, text, "Safe travels!")
	assert.NotContains(t, text, "never sent")
}

func TestREPLEndsOnEOF(t *testing.T) {
	coord := chat.NewCoordinator(chat.NewSession(), &scriptedBackend{}, nil)
	var out bytes.Buffer

	err := NewREPL(coord, newTestDisplay(&out), strings.NewReader(""), "x", nil).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Safe travels!")
}

func TestREPLEndsOnCancel(t *testing.T) {
	coord := chat.NewCoordinator(chat.NewSession(), &scriptedBackend{}, nil)
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocking := &blockingReader{done: make(chan struct{})}
	defer close(blocking.done)

	err := NewREPL(coord, newTestDisplay(&out), blocking, "x", nil).Run(ctx)
	assert.NoError(t, err)
}

type blockingReader struct {
	done chan struct{}
}

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.done
	return 0, errors.New("closed")
}

func TestREPLReportsBrokenInput(t *testing.T) {
	backend := &scriptedBackend{}
	coord := chat.NewCoordinator(chat.NewSession(), backend, nil)
	var out bytes.Buffer

	in := iotest.ErrReader(errors.New("device gone"))
	err := NewREPL(coord, newTestDisplay(&out), in, "x", nil).Run(context.Background())

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "✗ Error: reading input: device gone")
	assert.Contains(t, text, "Safe travels!")
	assert.Empty(t, backend.seen)
}

func TestPrintWarning(t *testing.T) {
	var out bytes.Buffer
	newTestDisplay(&out).PrintWarning("transcript not saved")
	assert.Equal(t, colorYellow+"⚠ transcript not saved"+colorReset+"\n", out.String())
}
