package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when the context ends before a line arrives.
var ErrInputCancelled = errors.New("input canceled")

type lineResult struct {
	err  error
	line string
}

// LineReader reads lines from an io.Reader while honoring context
// cancellation. One goroutine owns the source and hands lines over a channel,
// so a line that arrives after a canceled read is kept for the next one.
type LineReader struct {
	src   *bufio.Reader
	lines chan lineResult
	start sync.Once
}

// NewLineReader wraps r. Nothing is read until the first ReadLine.
func NewLineReader(r io.Reader) *LineReader {
	if r == nil {
		panic("reader cannot be nil")
	}
	return &LineReader{
		src:   bufio.NewReader(r),
		lines: make(chan lineResult),
	}
}

func (r *LineReader) pump() {
	defer close(r.lines)
	for {
		line, err := r.src.ReadString('\n')
		if line != "" {
			r.lines <- lineResult{line: line}
		}
		if err != nil {
			r.lines <- lineResult{err: err}
			return
		}
	}
}

// ReadLine returns the next line with surrounding whitespace trimmed. A final
// line without a newline is still returned; io.EOF follows it.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
