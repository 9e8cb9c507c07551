package types

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when an image does not exist in a backend
var ErrNotFound = os.ErrNotExist

// Backend is a read-only store of disk images addressed by name
type Backend interface {
	// ReadRange reads the bytes [start, end) of an image. Reads past the
	// end are truncated.
	ReadRange(ctx context.Context, name string, start, end int64) ([]byte, error)

	// Size returns the image length in bytes
	Size(ctx context.Context, name string) (int64, error)

	// Close releases backend resources
	Close() error
}

// ReaderAtOpener is implemented by backends with native random access
type ReaderAtOpener interface {
	OpenReaderAt(ctx context.Context, name string) (ReaderAtCloser, int64, error)
}

// ReaderAtCloser is an io.ReaderAt that must be closed
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// SliceRange clamps [start, end) to data and returns that part of it
func SliceRange(data []byte, start, end int64) []byte {
	if start < 0 {
		start = 0
	}
	if end < 0 || end > int64(len(data)) {
		end = int64(len(data))
	}
	if start >= end {
		return []byte{}
	}
	return data[start:end]
}

// IsNotFound reports whether err means the image does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
