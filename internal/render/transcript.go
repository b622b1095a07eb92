package render

import (
	"strings"

	"travelbot/internal/chat"
)

// Styles decorate the pieces of a transcript. Nil fields leave text as is.
type Styles struct {
	UserLabel func(string) string
	BotLabel  func(string) string
	UserText  func(string) string
	BotText   func(string) string
	Typing    func(string) string
}

// Options control transcript layout
type Options struct {
	UserName   string
	BotName    string
	TypingText string
	Styles     Styles
}

// DefaultOptions are used for zero-value fields
var DefaultOptions = Options{
	UserName:   "You",
	BotName:    "TravelBot",
	TypingText: "TravelBot is typing...",
}

// Transcript renders the display log top to bottom. Bot replies pass
// through f (raw text on formatter error), user text is shown verbatim and
// the typing indicator follows the last message while typing is true.
func Transcript(log []chat.DisplayMessage, typing bool, f Formatter, opts Options) string {
	opts = withDefaults(opts)
	if f == nil {
		f = Plain{}
	}

	blocks := make([]string, 0, len(log)+1)
	for _, msg := range log {
		blocks = append(blocks, Message(msg, f, opts))
	}
	if typing {
		blocks = append(blocks, apply(opts.Styles.Typing, opts.TypingText))
	}

	return strings.Join(blocks, "\n\n")
}

// Message renders one display message with its label
func Message(msg chat.DisplayMessage, f Formatter, opts Options) string {
	opts = withDefaults(opts)

	if msg.Sender == chat.SenderUser {
		return apply(opts.Styles.UserLabel, opts.UserName) + "\n" + apply(opts.Styles.UserText, msg.Text)
	}

	body, err := f.Format(msg.Text)
	if err != nil {
		body = msg.Text
	}
	return apply(opts.Styles.BotLabel, opts.BotName) + "\n" + apply(opts.Styles.BotText, body)
}

func withDefaults(opts Options) Options {
	if opts.UserName == "" {
		opts.UserName = DefaultOptions.UserName
	}
	if opts.BotName == "" {
		opts.BotName = DefaultOptions.BotName
	}
	if opts.TypingText == "" {
		opts.TypingText = DefaultOptions.TypingText
	}
	return opts
}

func apply(style func(string) string, s string) string {
	if style == nil {
		return s
	}
	return style(s)
}
