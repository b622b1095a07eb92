// Package render turns the display log into text. Everything here is a
// pure function of its inputs except the glamour renderer's own state.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Formatter converts a markdown bot reply into displayable text
type Formatter interface {
	Format(markdown string) (string, error)
}

// Plain leaves text untouched
type Plain struct{}

// Format returns markdown as is
func (Plain) Format(markdown string) (string, error) {
	return markdown, nil
}

// Glamour renders markdown for the terminal
type Glamour struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
}

// NewGlamour creates a glamour formatter. style is a glamour standard
// style name ("dark", "light", "notty", ...) or "auto" to detect from the
// terminal.
func NewGlamour(style string, wordWrap int) (*Glamour, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(wordWrap),
	}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Glamour{renderer: renderer}, nil
}

// Format renders markdown, trimming the blank lines glamour puts around
// the document
func (g *Glamour) Format(markdown string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out, err := g.renderer.Render(markdown)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// Cache memoises a Formatter by input text. The display log is
// append-only, so earlier bubbles never need formatting twice.
type Cache struct {
	next Formatter

	mu      sync.Mutex
	entries map[string]string
}

// NewCache wraps next
func NewCache(next Formatter) *Cache {
	return &Cache{
		next:    next,
		entries: make(map[string]string),
	}
}

// Format returns the cached rendering or computes it. Errors are not
// cached.
func (c *Cache) Format(markdown string) (string, error) {
	c.mu.Lock()
	out, ok := c.entries[markdown]
	c.mu.Unlock()
	if ok {
		return out, nil
	}

	out, err := c.next.Format(markdown)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[markdown] = out
	c.mu.Unlock()
	return out, nil
}

// Reset drops every cached entry, e.g. after a resize changed wrapping
func (c *Cache) Reset(next Formatter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next != nil {
		c.next = next
	}
	c.entries = make(map[string]string)
}
