package tempfile

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

var (
	_ Sink        = (*Memory)(nil)
	_ Sink        = (*File)(nil)
	_ io.Seeker   = (*Memory)(nil)
	_ io.Seeker   = (*File)(nil)
	_ io.WriterTo = (*Memory)(nil)
)

// Sink defines the byte store a spillover stream writes into and reads back from.
// Both the in-memory and the anonymous disk implementations share a single cursor
// that is used for writing and reading alike.
type Sink interface {
	// Write stores p at the current cursor and advances it.
	io.Writer

	// Read reads from the current cursor and advances it. Returns io.EOF at the end of data.
	io.Reader

	// Close releases the underlying storage. Calling Close more than once is a no-op.
	io.Closer

	// Rewind moves the cursor back to the start of the data.
	Rewind() error

	// Pos reports the current cursor offset.
	Pos() (int64, error)
}

// Options are forwarded untouched to New when a disk file has to be created.
type Options struct {
	// Fs is the filesystem the file is created on. nil uses the OS filesystem.
	Fs afero.Fs `yaml:"-"`

	// Perm, when non-zero, replaces the 0600 permission the file is created with.
	Perm os.FileMode `yaml:"perm"`
}

func (o Options) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}
