package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// LineReader delivers lines typed by the user
type LineReader struct {
	lines chan string
	err   chan error
}

// NewLineReader starts reading r line by line in the background. The
// goroutine exits when r reaches EOF or fails.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		lines: make(chan string),
		err:   make(chan error, 1),
	}

	go func() {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				lr.lines <- strings.TrimRight(line, "\r\n")
			}
			if err != nil {
				lr.err <- err
				close(lr.lines)
				return
			}
		}
	}()

	return lr
}

// ReadLine returns the next line without its line ending. It returns
// io.EOF at end of input and ctx.Err() when ctx ends first.
func (lr *LineReader) ReadLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lr.lines:
		if !ok {
			return "", <-lr.err
		}
		return line, nil
	}
}
