package tempfile

import (
	"errors"
	"io"
)

var errNegativePosition = errors.New("tempfile: negative position")

// Memory is an in-memory Sink. It stores all data in a byte slice and keeps
// a cursor that writes and reads share, the same way a file does.
type Memory struct {
	data []byte
	pos  int64
}

// NewMemory creates an empty Memory sink with the specified initial capacity.
// The capacity only reduces reallocations while writing.
func NewMemory(n int) *Memory {
	return &Memory{data: make([]byte, 0, n)}
}

// Len returns the number of bytes stored, independent of the cursor.
func (m *Memory) Len() int {
	return len(m.data)
}

// Bytes returns the stored data. The slice aliases the sink's storage.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Write stores p at the cursor, overwriting existing bytes and growing the data as needed.
func (m *Memory) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		if end > int64(cap(m.data)) {
			grown := make([]byte, len(m.data), growCap(cap(m.data), end))
			copy(grown, m.data)
			m.data = grown
		}
		m.data = m.data[:end]
	}
	n := copy(m.data[m.pos:end], p)
	m.pos = end
	return n, nil
}

// WriteString stores s at the cursor.
func (m *Memory) WriteString(s string) (int, error) {
	return m.Write([]byte(s))
}

// Read reads from the cursor into p.
func (m *Memory) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

// WriteTo writes everything from the cursor to the end of the data to w.
func (m *Memory) WriteTo(w io.Writer) (int64, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, nil
	}
	rest := m.data[m.pos:]
	n, err := w.Write(rest)
	m.pos += int64(n)
	if err == nil && n < len(rest) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// Seek implements io.Seeker. Seeking past the end is allowed; a later write fills the gap with zeros.
func (m *Memory) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.data)) + offset
	default:
		return 0, errors.New("tempfile: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativePosition
	}
	m.pos = abs
	return abs, nil
}

// Rewind moves the cursor to the start.
func (m *Memory) Rewind() error {
	m.pos = 0
	return nil
}

// Pos returns the cursor offset. It never fails.
func (m *Memory) Pos() (int64, error) {
	return m.pos, nil
}

// Close releases all memory.
func (m *Memory) Close() error {
	m.data = nil
	m.pos = 0
	return nil
}

// growCap doubles c until it holds at least need bytes.
func growCap(c int, need int64) int {
	if c == 0 {
		c = 64
	}
	for int64(c) < need {
		c *= 2
	}
	return c
}
