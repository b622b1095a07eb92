package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"travelbot/internal/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []chat.Request
	reply    chat.Reply
	err      error
}

func (f *fakeBackend) Chat(_ context.Context, req chat.Request) (chat.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func newModel(t *testing.T, backend chat.Backend) (Model, *chat.Session) {
	t.Helper()
	session := chat.NewSession()
	coord := chat.NewCoordinator(session, backend, nil)
	m := New(context.Background(), coord, Options{Endpoint: "http://localhost:5000/chat"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), session
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func enter(t *testing.T, m Model) (Model, tea.Cmd) {
	return press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestWelcomeShownBeforeFirstMessage(t *testing.T) {
	m, _ := newModel(t, &fakeBackend{})
	view := m.View()
	assert.Contains(t, view, "Travel Assistant")
	assert.Contains(t, view, "How to use:")
	assert.Contains(t, view, "locating…")
}

func TestEnterSendsAndShowsReply(t *testing.T) {
	city := "Paris"
	backend := &fakeBackend{reply: chat.Reply{Response: "Paris is lovely in spring.", City: &city}}
	m, _ := newModel(t, backend)

	m = typeText(t, m, "Where should I go?")
	m, cmd := enter(t, m)
	require.NotNil(t, cmd)

	// Optimistic user message and typing indicator before the reply lands.
	state := m.State()
	assert.True(t, state.Typing)
	require.Len(t, state.Display, 1)
	assert.Equal(t, chat.DisplayMessage{Sender: chat.SenderUser, Text: "Where should I go?"}, state.Display[0])
	assert.Empty(t, state.Turns)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "TravelBot is typing...")

	next, _ := m.Update(cmd())
	m = next.(Model)

	state = m.State()
	assert.False(t, state.Typing)
	require.Len(t, state.Display, 2)
	assert.Len(t, state.Turns, 2)
	require.NotNil(t, state.LastKnownCity)
	assert.Equal(t, "Paris", *state.LastKnownCity)

	view := m.View()
	assert.Contains(t, view, "Paris is lovely in spring.")
	assert.NotContains(t, view, "TravelBot is typing...")
	assert.Contains(t, view, "🏙 Paris")

	require.Len(t, backend.requests, 1)
	assert.Equal(t, "Where should I go?", backend.requests[0].Message)
	assert.Equal(t, []chat.Turn{{Role: chat.RoleUser, Content: "Where should I go?"}}, backend.requests[0].History)
}

func TestEnterWithBlankInputDoesNothing(t *testing.T) {
	backend := &fakeBackend{}
	m, _ := newModel(t, backend)

	m = typeText(t, m, "   ")
	m, cmd := enter(t, m)

	assert.Nil(t, cmd)
	assert.Empty(t, m.State().Display)
	assert.False(t, m.State().Typing)
	assert.Empty(t, backend.requests)
}

func TestFailedTurnShowsErrorText(t *testing.T) {
	m, _ := newModel(t, &fakeBackend{err: errors.New("connection refused")})

	m = typeText(t, m, "hello")
	m, cmd := enter(t, m)
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)

	state := m.State()
	require.Len(t, state.Display, 2)
	assert.Equal(t, chat.ErrorText, state.Display[1].Text)
	assert.Empty(t, state.Turns)
	assert.False(t, state.Typing)
	assert.Contains(t, m.View(), "Sorry, something went wrong")
}

func TestStaleSnapshotIgnored(t *testing.T) {
	m, session := newModel(t, &fakeBackend{reply: chat.Reply{Response: "hi"}})
	stale := session.Snapshot()

	m = typeText(t, m, "hello")
	m, cmd := enter(t, m)
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Len(t, m.State().Display, 2)

	next, _ = m.Update(stateMsg(stale))
	m = next.(Model)
	assert.Len(t, m.State().Display, 2)
}

func TestLocationSnapshotUpdatesHeader(t *testing.T) {
	m, session := newModel(t, &fakeBackend{})
	session.ResolveLocation(&chat.Location{Latitude: 48.8566, Longitude: 2.3522})

	next, _ := m.Update(stateMsg(session.Snapshot()))
	m = next.(Model)
	assert.Contains(t, m.View(), "48.8566, 2.3522")
}

func TestHistoryAndHelpToggle(t *testing.T) {
	m, _ := newModel(t, &fakeBackend{reply: chat.Reply{Response: "Try Lisbon."}})

	m = typeText(t, m, "ideas?")
	m, cmd := enter(t, m)
	next, _ := m.Update(cmd())
	m = next.(Model)

	m = typeText(t, m, "/history")
	m, cmd = enter(t, m)
	assert.Nil(t, cmd)
	view := m.View()
	assert.Contains(t, view, "Conversation sent to the assistant")
	assert.Contains(t, view, "[assistant] Try Lisbon.")

	m = typeText(t, m, "/history")
	m, _ = enter(t, m)
	assert.NotContains(t, m.View(), "Conversation sent to the assistant")

	m = typeText(t, m, "/help")
	m, _ = enter(t, m)
	assert.Contains(t, m.View(), "http://localhost:5000/chat")

	// Commands never reach the conversation.
	assert.Len(t, m.State().Display, 2)
}

func TestQuitKeys(t *testing.T) {
	m, _ := newModel(t, &fakeBackend{})

	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyEsc}} {
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}

	m = typeText(t, m, "/quit")
	_, cmd := enter(t, m)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
