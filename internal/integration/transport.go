// Package integration handles the sensor transport
package integration

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

// MaxLineLength bounds how much unterminated input is buffered before it is dropped
const MaxLineLength = 1024

var (
	// ErrNoLine is returned by ReadLine when no complete line is buffered
	ErrNoLine = errors.New("no complete line available")
	// ErrLineTooLong is returned when input grows past MaxLineLength without a line break
	ErrLineTooLong = errors.New("line exceeds maximum length")
	// ErrInvalidEncoding is returned for lines that are not valid UTF-8
	ErrInvalidEncoding = errors.New("line is not valid UTF-8")
)

// Transport yields raw text lines from the sensor
type Transport interface {
	// BytesWaiting reports how many bytes of complete lines are ready to be read
	BytesWaiting() (int, error)
	// ReadLine returns the next line without its terminator
	ReadLine() (string, error)
}

// TransportError reports an I/O fault while reading sensor input
type TransportError struct {
	Op     string
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s from %s: %v", e.Op, e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StreamTransport splits a byte stream into lines. Each readiness check performs
// at most one Read on the underlying stream, so it returns as fast as the stream's
// own read timeout allows.
type StreamTransport struct {
	mu      sync.Mutex
	src     io.Reader
	source  string
	buf     []byte
	pending []byte
	eof     bool
	eofWait time.Duration
}

// NewStreamTransport wraps src. source names the stream in errors.
func NewStreamTransport(src io.Reader, source string) *StreamTransport {
	return &StreamTransport{
		src:     src,
		source:  source,
		buf:     make([]byte, 256),
		eofWait: 100 * time.Millisecond,
	}
}

// BytesWaiting implements Transport
func (t *StreamTransport) BytesWaiting() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trimLeadingBreaks()
	if n := t.completeBytes(); n > 0 {
		return n, nil
	}
	if t.eof {
		time.Sleep(t.eofWait)
		return 0, nil
	}

	n, err := t.src.Read(t.buf)
	t.pending = append(t.pending, t.buf[:n]...)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return 0, &TransportError{Op: "read", Source: t.source, Err: err}
		}
		t.eof = true
		// flush a trailing line that has no terminator
		if last := len(t.pending) - 1; last >= 0 && !isLineBreak(t.pending[last]) {
			t.pending = append(t.pending, '\n')
		}
	}
	t.trimLeadingBreaks()

	if t.completeBytes() == 0 && len(t.pending) > MaxLineLength {
		t.pending = t.pending[:0]
		return 0, &TransportError{Op: "read", Source: t.source, Err: ErrLineTooLong}
	}
	return t.completeBytes(), nil
}

// ReadLine implements Transport
func (t *StreamTransport) ReadLine() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trimLeadingBreaks()
	idx := bytes.IndexAny(t.pending, "\r\n")
	if idx < 0 {
		return "", &TransportError{Op: "read line", Source: t.source, Err: ErrNoLine}
	}

	line := string(t.pending[:idx])
	t.pending = append(t.pending[:0], t.pending[idx:]...)
	t.trimLeadingBreaks()

	if !utf8.ValidString(line) {
		return "", &TransportError{Op: "decode line", Source: t.source, Err: ErrInvalidEncoding}
	}
	return line, nil
}

// trimLeadingBreaks drops line terminators left over from the previous line,
// including the \n of a \r\n pair that arrived in a later read
func (t *StreamTransport) trimLeadingBreaks() {
	i := 0
	for i < len(t.pending) && isLineBreak(t.pending[i]) {
		i++
	}
	if i > 0 {
		t.pending = append(t.pending[:0], t.pending[i:]...)
	}
}

func isLineBreak(b byte) bool {
	return b == '\r' || b == '\n'
}

// completeBytes returns the length of buffered input up to the last line break
func (t *StreamTransport) completeBytes() int {
	idx := bytes.LastIndexAny(t.pending, "\r\n")
	if idx < 0 {
		return 0
	}
	return idx + 1
}

var _ Transport = (*StreamTransport)(nil)
