package process

import "sync"

// Buffer implements a concurrent-safe capture sink for process output.
// Using one as a Config stream target lets WaitResult attach the captured
// output to its ExitError.
type Buffer struct {
	mu  sync.Mutex
	buf []byte
}

// Write appends data to the buffer.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Bytes returns a copy of the captured output.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return nil
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// String returns the captured output as a string.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// ReadAndTruncate reads the unread contents of the buffer, and then
// truncates (empties) the buffer.
func (b *Buffer) ReadAndTruncate() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return nil
	}
	out := b.buf
	b.buf = make([]byte, 0, cap(b.buf))
	return out
}
