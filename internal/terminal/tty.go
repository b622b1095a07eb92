package terminal

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal checks if f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Size returns the terminal width and height, or 80x24 when f is not a
// terminal
func Size(f *os.File) (width, height int) {
	width, height, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80, 24 // defaults
	}
	return width, height
}
