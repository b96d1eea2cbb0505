package process

import (
	"bytes"
	"strings"
	"sync"
)

// LineHandler is implemented by stream targets that want the child's
// output delivered one line at a time, without the trailing newline, in
// arrival order.
type LineHandler interface {
	HandleLine(line string)
}

// LineHandlerFunc adapts a function to a LineHandler. It also satisfies
// io.Writer so it can be assigned to a Config stream target; when used as
// one, the pump always delivers via HandleLine.
type LineHandlerFunc func(string)

func (f LineHandlerFunc) HandleLine(line string) { f(line) }

func (f LineHandlerFunc) Write(b []byte) (int, error) {
	f(strings.TrimRight(string(b), "\r\n"))
	return len(b), nil
}

// LineWriter buffers writes and emits complete lines to a callback. Useful
// for teeing raw output into a line-oriented consumer such as a logger.
// Close flushes any unterminated final line.
type LineWriter struct {
	F func(string)

	mu  sync.Mutex
	rem []byte
}

func NewLineWriter(f func(string)) *LineWriter {
	return &LineWriter{F: f}
}

func (w *LineWriter) HandleLine(line string) { w.F(line) }

func (w *LineWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.rem = append(w.rem, b...)
	for {
		i := bytes.IndexByte(w.rem, '\n')
		if i < 0 {
			return len(b), nil
		}
		line := strings.TrimRight(string(w.rem[:i]), "\r")
		w.rem = w.rem[i+1:]
		w.F(line)
	}
}

func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.rem) > 0 {
		w.F(string(w.rem))
		w.rem = nil
	}
	return nil
}
