package spillover

import (
	"errors"
	"fmt"
)

// Errors returned by Stream operations. They are reported at the offending call
// and compared with errors.Is.
var (
	// ErrClosed is returned by operations attempted outside an Open session.
	ErrClosed = errors.New("spillover: closed stream")

	// ErrAlreadyOpen is returned by Open while a session is already active.
	ErrAlreadyOpen = errors.New("spillover: already open")

	// ErrFinalized is returned by Write and Finalize once the stream is finalized.
	ErrFinalized = errors.New("spillover: stream finalized")

	// ErrNotFinalized is returned by reads before Finalize.
	ErrNotFinalized = errors.New("spillover: stream not finalized")

	// ErrBasenameRequired is returned by New when no basename is given.
	ErrBasenameRequired = errors.New("spillover: basename required")

	// ErrOperationRequired is returned by Open when fn is nil.
	ErrOperationRequired = errors.New("spillover: operation required for open")

	// ErrReleased is returned by Open once a session has closed the stream's disk file.
	ErrReleased = errors.New("spillover: disk file released")
)

// NewDiskError wraps an underlying I/O error with the operation and path it came from.
func NewDiskError(err error, operation, path string) error {
	if path != "" {
		return fmt.Errorf("disk error during %s on %s: %w", operation, path, err)
	}
	return fmt.Errorf("disk error during %s: %w", operation, err)
}

// ConfigError represents an error in configuration parameters
type ConfigError struct {
	// Field is the name of the configuration field that's invalid
	Field string
	// Value is the invalid value provided
	Value interface{}
	// Reason explains why the value is invalid
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field %s (value: %v): %s", e.Field, e.Value, e.Reason)
}
