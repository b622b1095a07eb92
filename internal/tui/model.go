// Package tui is the full-screen Bubble Tea front-end.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"travelbot/internal/chat"
	"travelbot/internal/render"
)

// stateMsg carries a session snapshot into the event loop
type stateMsg chat.State

// finishedMsg reports the end of a dispatched turn
type finishedMsg chat.Outcome

// chrome is the number of lines taken by the header and input area
const chrome = 4

// Options configure the model
type Options struct {
	// Endpoint is shown in the help panel
	Endpoint string
	// Formatter builds the markdown formatter for a given content width.
	// Nil means bot replies are shown as raw text.
	Formatter func(width int) render.Formatter
	Logger    *zap.Logger
}

// Model is the Bubble Tea model for the chat screen
type Model struct {
	ctx   context.Context
	coord *chat.Coordinator
	opts  Options

	// state is the latest applied session snapshot
	state chat.State

	formatter *render.Cache
	styles    styles

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	width       int
	height      int
	ready       bool
	showHistory bool
	showHelp    bool
}

// New creates the chat screen over coord. ctx bounds every dispatched
// turn.
func New(ctx context.Context, coord *chat.Coordinator, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:      ctx,
		coord:    coord,
		opts:     opts,
		state:    coord.Session().Snapshot(),
		styles:   defaultStyles(),
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		width:    80,
		height:   24,
	}
	m.formatter = render.NewCache(m.buildFormatter(m.width))
	m.spinner.Style = m.styles.typing
	return m
}

// Init starts the cursor blink and the spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles one message
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case stateMsg:
		m.apply(chat.State(msg))
		return m, nil

	case finishedMsg:
		out := chat.Outcome(msg)
		if out.Status == chat.Failed {
			m.opts.Logger.Debug("turn failed", zap.Uint64("seq", out.Seq), zap.Error(out.Err))
		}
		m.apply(m.coord.Session().Snapshot())
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Typing {
			m.refresh(false)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles Enter: commands are handled locally, anything else is
// staged with the coordinator and finished in a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()

	switch strings.TrimSpace(value) {
	case "/exit", "/quit":
		return m, tea.Quit
	case "/history":
		m.input.Reset()
		m.showHistory = !m.showHistory
		m.refresh(true)
		return m, nil
	case "/help":
		m.input.Reset()
		m.showHelp = !m.showHelp
		m.refresh(true)
		return m, nil
	}

	p, ok := m.coord.Begin(value)
	if !ok {
		return m, nil
	}
	m.input.Reset()
	m.showHistory = false
	m.apply(m.coord.Session().Snapshot())

	ctx, coord := m.ctx, m.coord
	return m, func() tea.Msg {
		return finishedMsg(coord.Finish(ctx, p))
	}
}

// apply adopts a snapshot unless a newer one is already shown
func (m *Model) apply(state chat.State) {
	if state.Version < m.state.Version {
		return
	}
	grew := len(state.Display) != len(m.state.Display) || state.Typing != m.state.Typing
	m.state = state
	m.refresh(grew)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 1)
	m.input.Width = max(width-4, 10)
	m.formatter.Reset(m.buildFormatter(width))
	m.ready = true
	m.refresh(true)
}

func (m *Model) buildFormatter(width int) render.Formatter {
	if m.opts.Formatter == nil {
		return render.Plain{}
	}
	return m.opts.Formatter(max(width-4, 20))
}

// refresh re-renders the viewport content, optionally scrolling to the
// newest entry
func (m *Model) refresh(scroll bool) {
	var content string
	switch {
	case m.showHelp:
		content = helpText(m.opts.Endpoint)
	case m.showHistory:
		content = historyText(m.state)
	default:
		content = m.transcript()
	}

	m.viewport.SetContent(content)
	if scroll {
		m.viewport.GotoBottom()
	}
}

// transcript renders the display log. With an empty log the usage hints
// are shown instead.
func (m *Model) transcript() string {
	if len(m.state.Display) == 0 && !m.state.Typing {
		return welcomeText(m.styles)
	}

	textWidth := max(m.width-4, 10)
	opts := render.Options{
		TypingText: m.spinner.View() + " " + render.DefaultOptions.TypingText,
		Styles: render.Styles{
			UserLabel: render1(m.styles.userLabel),
			BotLabel:  render1(m.styles.botLabel),
			UserText:  render1(m.styles.userText.Width(textWidth)),
			Typing:    render1(m.styles.typing),
		},
	}
	return render.Transcript(m.state.Display, m.state.Typing, m.formatter, opts)
}

// View draws the screen
func (m Model) View() string {
	if !m.ready {
		return "Starting…"
	}

	header := m.styles.title.Render(render.Title) + "  " +
		m.styles.status.Render("📍 "+render.Location(m.state)+"  🏙 "+render.City(m.state))

	footer := m.styles.help.Render("enter send · /history · /help · esc quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		footer,
	)
}

// State returns the snapshot the model last applied
func (m Model) State() chat.State {
	return m.state
}

func render1(s lipgloss.Style) func(string) string {
	return func(text string) string { return s.Render(text) }
}

func welcomeText(st styles) string {
	var b strings.Builder
	b.WriteString(st.botLabel.Render("How to use:"))
	b.WriteString("\n")
	for _, line := range render.Instructions {
		b.WriteString("  • " + line + "\n")
	}
	return b.String()
}

func helpText(endpoint string) string {
	var b strings.Builder
	b.WriteString("Backend: " + endpoint + "\n\n")
	for _, line := range render.Commands {
		b.WriteString(line + "\n")
	}
	b.WriteString("\nType /help again to return to the chat.\n")
	return b.String()
}

func historyText(state chat.State) string {
	var b strings.Builder
	b.WriteString("Conversation sent to the assistant\n\n")
	if len(state.Turns) == 0 {
		b.WriteString("No conversation history yet\n")
	}
	for _, turn := range state.Turns {
		b.WriteString("[" + string(turn.Role) + "] " + turn.Content + "\n")
	}
	b.WriteString("\nLast known city: " + render.City(state) + "\n")
	b.WriteString("Location: " + render.Location(state) + "\n")
	return b.String()
}
