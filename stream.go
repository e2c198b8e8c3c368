// Package spillover implements a write-then-read byte stream that keeps its data in
// memory until it grows past a threshold, then moves it once to an anonymous temp
// file on disk. Callers use the same Stream either way; only InMemory tells them apart.
//
// A Stream is used inside a single Open session:
//
//	err := stream.Open(func(s *spillover.Stream) error {
//		if _, err := io.Copy(s, src); err != nil {
//			return err
//		}
//		if err := s.Finalize(); err != nil {
//			return err
//		}
//		_, err := s.WriteTo(dst)
//		return err
//	})
//
// The disk file, if one was created, is closed when Open returns, whatever fn did.
// A Stream is not safe for concurrent use.
package spillover

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lanrat/spillover/tempfile"
)

var (
	_ io.Writer   = (*Stream)(nil)
	_ io.Reader   = (*Stream)(nil)
	_ io.WriterTo = (*Stream)(nil)
)

// backing holds exactly one active sink. Migration replaces the whole value.
type backing struct {
	mem  *tempfile.Memory
	disk *tempfile.File
}

func (b backing) sink() tempfile.Sink {
	if b.disk != nil {
		return b.disk
	}
	return b.mem
}

// Stream is a byte stream that spills from memory to an unlinked temp file once more
// than MaxInMemorySize bytes have been written to it.
type Stream struct {
	id          string
	basename    string
	dir         string
	fileOpts    tempfile.Options
	maxInMemory int64
	size        int64
	backing     backing
	open        bool
	final       bool
	released    bool
	logger      *slog.Logger
}

// New creates a Stream. basename is the temp file name pattern used if the stream
// spills (see tempfile.New); it is required. dir is passed to tempfile.New as given;
// only an empty dir is resolved, by tempfile.TempDir. A nil config uses DefaultConfig.
func New(basename, dir string, config *Config) (*Stream, error) {
	if basename == "" {
		return nil, ErrBasenameRequired
	}
	config = mergeConfig(config)
	id := uuid.NewString()
	return &Stream{
		id:          id,
		basename:    basename,
		dir:         tempfile.TempDir(dir, config.PreferDiskBacked),
		fileOpts:    config.File,
		maxInMemory: config.MaxInMemorySize,
		backing:     backing{mem: tempfile.NewMemory(0)},
		logger:      config.Logger.With("stream", id),
	}, nil
}

// With creates a Stream and runs fn inside its Open session.
func With(basename, dir string, config *Config, fn func(*Stream) error) error {
	s, err := New(basename, dir, config)
	if err != nil {
		return err
	}
	return s.Open(fn)
}

// ID returns the identifier attached to the stream's log records.
func (s *Stream) ID() string {
	return s.id
}

// Dir returns the directory a spilled file is created in.
func (s *Stream) Dir() string {
	return s.dir
}

// MaxInMemorySize returns the threshold after which data moves to disk.
func (s *Stream) MaxInMemorySize() int64 {
	return s.maxInMemory
}

// Size returns the total number of bytes written, regardless of any reads.
func (s *Stream) Size() int64 {
	return s.size
}

// InMemory reports whether data is still held in memory. Once false it stays false.
func (s *Stream) InMemory() bool {
	return s.backing.disk == nil
}

// IsOpen reports whether an Open session is active.
func (s *Stream) IsOpen() bool {
	return s.open
}

// IsFinal reports whether Finalize has been called.
func (s *Stream) IsFinal() bool {
	return s.final
}

// Open marks the stream open, calls fn with it, and on return (including a panic in fn)
// marks it closed again and closes the disk file if the stream spilled. A close error is
// joined with fn's error.
//
// Open cannot be nested. After a session that closed a disk file the stream is spent and
// Open returns ErrReleased; a stream that never spilled can be opened again.
func (s *Stream) Open(fn func(*Stream) error) (err error) {
	if s.open {
		return ErrAlreadyOpen
	}
	if fn == nil {
		return ErrOperationRequired
	}
	if s.released {
		return ErrReleased
	}

	s.open = true
	defer func() {
		s.open = false
		if cerr := s.release(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(s)
}

// release closes the disk file, if any. The file's Close is idempotent.
func (s *Stream) release() error {
	disk := s.backing.disk
	if disk == nil {
		return nil
	}
	s.released = true
	if err := disk.Close(); err != nil {
		s.logger.Warn("closing spill file failed", "dir", s.dir, "error", err)
		return NewDiskError(err, "close", disk.Name())
	}
	return nil
}

// Write appends p to the stream, moving the data to disk first if the new total
// exceeds MaxInMemorySize. p is not modified or retained.
func (s *Stream) Write(p []byte) (int, error) {
	if !s.open {
		return 0, ErrClosed
	}
	if s.final {
		return 0, ErrFinalized
	}

	// size is bumped before the check so memory never holds more than the threshold
	// plus the chunk being written
	s.size += int64(len(p))
	if s.InMemory() && s.size > s.maxInMemory {
		if err := s.spill(); err != nil {
			s.size -= int64(len(p))
			return 0, err
		}
	}

	n, err := s.backing.sink().Write(p)
	if n < len(p) {
		s.size -= int64(len(p) - n)
	}
	if err != nil {
		err = s.diskError(err, "write")
	}
	return n, err
}

// WriteString appends str to the stream.
func (s *Stream) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// spill moves the in-memory data to a new anonymous temp file and makes it the
// active backing. On failure the stream stays in memory, cursor unchanged.
func (s *Stream) spill() error {
	mem := s.backing.mem
	pos, err := mem.Pos()
	if err != nil {
		return err
	}

	f, err := tempfile.New(s.basename, s.dir, s.fileOpts)
	if err != nil {
		return NewDiskError(err, "create", s.dir)
	}

	abort := func(err error) error {
		_ = f.Close()
		_, _ = mem.Seek(pos, io.SeekStart)
		return NewDiskError(err, "copy", f.Name())
	}
	if err := mem.Rewind(); err != nil {
		return abort(err)
	}
	if _, err := io.Copy(f, mem); err != nil {
		return abort(err)
	}

	s.backing = backing{disk: f}
	_ = mem.Close()

	s.logger.Debug("spilled to disk",
		"size", s.size,
		"max_in_memory_size", s.maxInMemory,
		"dir", s.dir,
	)
	return nil
}

// Finalize stops further writes and rewinds the stream so it can be read from the start.
func (s *Stream) Finalize() error {
	if !s.open {
		return ErrClosed
	}
	if s.final {
		return ErrFinalized
	}
	if err := s.backing.sink().Rewind(); err != nil {
		return s.diskError(err, "rewind")
	}
	s.final = true
	return nil
}

// readable checks the preconditions shared by all reads.
func (s *Stream) readable() error {
	if !s.open {
		return ErrClosed
	}
	if !s.final {
		return ErrNotFinalized
	}
	return nil
}

// Read reads from the current position. It returns io.EOF once all data has been read.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.readable(); err != nil {
		return 0, err
	}
	n, err := s.backing.sink().Read(p)
	if err != nil && err != io.EOF {
		err = s.diskError(err, "read")
	}
	return n, err
}

// ReadN returns up to n bytes from the current position, or everything that is left
// when n is negative. With nothing left and n > 0 it returns an empty slice and io.EOF.
func (s *Stream) ReadN(n int) ([]byte, error) {
	if n < 0 {
		return s.ReadAll()
	}
	if err := s.readable(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(s, int64(n)))
	if err != nil {
		return data, err
	}
	if len(data) == 0 && n > 0 {
		return data, io.EOF
	}
	return data, nil
}

// ReadAll returns everything from the current position to the end of the data.
// At the end it returns an empty slice and no error.
func (s *Stream) ReadAll() ([]byte, error) {
	if err := s.readable(); err != nil {
		return nil, err
	}
	return io.ReadAll(s)
}

// WriteTo writes the remaining data to w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	if err := s.readable(); err != nil {
		return 0, err
	}
	return io.Copy(w, struct{ io.Reader }{s})
}

// Position returns the current cursor offset of the active backing.
func (s *Stream) Position() (int64, error) {
	if !s.open {
		return 0, ErrClosed
	}
	pos, err := s.backing.sink().Pos()
	if err != nil {
		return 0, s.diskError(err, "seek")
	}
	return pos, nil
}

func (s *Stream) diskError(err error, operation string) error {
	if s.InMemory() {
		return err
	}
	return NewDiskError(err, operation, s.backing.disk.Name())
}
