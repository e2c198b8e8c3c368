// Package tempfile implements the two places a spillover stream keeps its bytes:
// an in-memory buffer and an anonymous temp file that is unlinked as soon as it
// is created, so it only lives as long as its open handle.
package tempfile

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// File is an anonymous disk-backed Sink. The file is removed from its directory
// right after creation; only the open handle keeps the data reachable.
type File struct {
	file   afero.File
	name   string
	closed bool
}

// New creates a temp file in dir and unlinks it immediately. basename follows the
// os.CreateTemp pattern rules: a "*" splits it into prefix and suffix, otherwise it
// is used as the prefix. A missing dir is created.
func New(basename, dir string, opts Options) (*File, error) {
	fs := opts.fs()
	if dir != "" {
		exists, err := afero.DirExists(fs, dir)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := fs.MkdirAll(dir, 0o700); err != nil {
				return nil, err
			}
		}
	}

	f, err := afero.TempFile(fs, dir, basename)
	if err != nil {
		return nil, err
	}
	name := f.Name()
	if opts.Perm != 0 {
		if err := fs.Chmod(name, opts.Perm); err != nil {
			_ = f.Close()
			_ = fs.Remove(name)
			return nil, err
		}
	}
	if err := fs.Remove(name); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &File{file: f, name: name}, nil
}

// Name returns the path the file had before it was unlinked.
func (f *File) Name() string {
	return f.name
}

// Closed reports whether Close has been called.
func (f *File) Closed() bool {
	return f.closed
}

func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.file.Write(p)
}

func (f *File) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.file.Read(p)
}

// Seek implements io.Seeker on the underlying handle.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, os.ErrClosed
	}
	return f.file.Seek(offset, whence)
}

// Rewind moves the cursor to the start of the file.
func (f *File) Rewind() error {
	_, err := f.Seek(0, io.SeekStart)
	return err
}

// Pos returns the cursor offset of the handle.
func (f *File) Pos() (int64, error) {
	return f.Seek(0, io.SeekCurrent)
}

// Close closes the handle, which frees the unlinked file's storage.
// Subsequent calls do nothing and return nil.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
