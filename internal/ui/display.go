// Package ui is the line-oriented front-end: a prompt, a scrolling log of
// boxed messages and a spinner while the assistant is typing.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"travelbot/internal/chat"
	"travelbot/internal/render"
	"travelbot/internal/terminal"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Display prints session changes as they happen. It keeps track of how
// much of the append-only display log is already on screen and prints
// only the new tail.
type Display struct {
	out       io.Writer
	width     int
	formatter render.Formatter
	spinner   *terminal.Spinner
	now       func() time.Time

	mu      sync.Mutex
	version uint64
	printed int
	typing  bool
}

// NewDisplay creates a display. animate enables the spinner and should
// only be set when out is a terminal.
func NewDisplay(out io.Writer, formatter render.Formatter, width int, animate bool) *Display {
	if formatter == nil {
		formatter = render.Plain{}
	}
	d := &Display{
		out:       out,
		width:     width,
		formatter: formatter,
		now:       time.Now,
	}
	if animate {
		d.spinner = terminal.NewSpinner(out)
	}
	return d
}

// Apply brings the screen up to date with state. Snapshots older than the
// last applied one are ignored.
func (d *Display) Apply(state chat.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if state.Version <= d.version {
		return
	}
	d.version = state.Version

	if d.printed < len(state.Display) {
		d.stopTypingLocked()
		for _, msg := range state.Display[d.printed:] {
			d.printMessageLocked(msg)
		}
		d.printed = len(state.Display)
	}

	if state.Typing && !d.typing {
		d.startTypingLocked()
	} else if !state.Typing && d.typing {
		d.stopTypingLocked()
	}
}

func (d *Display) startTypingLocked() {
	d.typing = true
	if d.spinner != nil {
		d.spinner.Start(render.DefaultOptions.TypingText)
		return
	}
	fmt.Fprintf(d.out, "%s%s%s\n", colorDim, render.DefaultOptions.TypingText, colorReset)
}

func (d *Display) stopTypingLocked() {
	if !d.typing {
		return
	}
	d.typing = false
	if d.spinner != nil {
		d.spinner.Stop()
	}
}

// printMessageLocked draws one boxed message
func (d *Display) printMessageLocked(msg chat.DisplayMessage) {
	name := render.DefaultOptions.UserName
	body := msg.Text
	if msg.Sender == chat.SenderBot {
		name = render.DefaultOptions.BotName
		if formatted, err := d.formatter.Format(msg.Text); err == nil {
			body = formatted
		}
	}

	fmt.Fprintf(d.out, "\n%s┌─ %s · %s%s\n", colorGray, name, d.now().Format("15:04:05"), colorReset)
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(d.out, "%s│%s %s\n", colorGray, colorReset, line)
	}
	fmt.Fprintf(d.out, "%s└%s\n", colorGray, colorReset)
}

// ClearScreen clears the terminal. Messages already shown stay in the log.
func (d *Display) ClearScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprint(d.out, "\033[2J\033[H")
}

// PrintWelcome displays the title and usage hints
func (d *Display) PrintWelcome(endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "%s%s%s%s\n", colorBold, colorCyan, render.Title, colorReset)
	fmt.Fprintf(d.out, "%sBackend:%s %s\n\n", colorGray, colorReset, endpoint)
	fmt.Fprintf(d.out, "%sHow to use:%s\n", colorBold, colorReset)
	for _, line := range render.Instructions {
		fmt.Fprintf(d.out, "  • %s\n", line)
	}
	fmt.Fprintf(d.out, "\n%sCommands:%s /history | /help | /clear | /exit\n", colorGray, colorReset)
}

// PrintHelp lists the commands
func (d *Display) PrintHelp() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, line := range render.Commands {
		fmt.Fprintf(d.out, "%s%s%s\n", colorGray, line, colorReset)
	}
	fmt.Fprintf(d.out, "%s/clear    clear the screen%s\n", colorGray, colorReset)
}

// PrintPrompt displays user input prompt
func (d *Display) PrintPrompt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "\n%s%s❯%s ", colorBold, colorGreen, colorReset)
}

// PrintHistory shows the conversation exactly as the backend receives it
func (d *Display) PrintHistory(state chat.State) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.printSeparatorLocked()
	fmt.Fprintln(d.out, "Conversation History")
	d.printSeparatorLocked()

	if len(state.Turns) == 0 {
		fmt.Fprintf(d.out, "%sℹ No conversation history yet%s\n", colorCyan, colorReset)
	}
	for _, turn := range state.Turns {
		label := "You"
		if turn.Role == chat.RoleAssistant {
			label = "Assistant"
		}
		fmt.Fprintf(d.out, "\n%s:\n%s\n", label, turn.Content)
	}

	fmt.Fprintln(d.out)
	if state.LastKnownCity != nil {
		fmt.Fprintf(d.out, "%sLast known city:%s %s\n", colorGray, colorReset, *state.LastKnownCity)
	}
	fmt.Fprintf(d.out, "%sLocation:%s %s\n", colorGray, colorReset, render.Location(state))
	d.printSeparatorLocked()
}

func (d *Display) printSeparatorLocked() {
	line := strings.Repeat("─", min(d.width, 80))
	fmt.Fprintf(d.out, "%s%s%s\n", colorDim, line, colorReset)
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s⚠ %s%s\n", colorYellow, msg, colorReset)
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s✗ Error: %v%s\n", colorRed, err, colorReset)
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTypingLocked()
	fmt.Fprintf(d.out, "\n%s%sSafe travels! 👋%s\n", colorBold, colorCyan, colorReset)
}
