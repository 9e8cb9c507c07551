package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// FileBackend reads images from the local filesystem. Names are paths,
// relative ones resolved against root.
type FileBackend struct {
	root string
}

var (
	_ types.Backend        = (*FileBackend)(nil)
	_ types.ReaderAtOpener = (*FileBackend)(nil)
)

// NewFileBackend creates a file backend
func NewFileBackend(root string) *FileBackend {
	return &FileBackend{root: root}
}

func (f *FileBackend) path(name string) string {
	if filepath.IsAbs(name) || f.root == "" {
		return name
	}
	return filepath.Join(f.root, name)
}

// OpenReaderAt opens the image for random access
func (f *FileBackend) OpenReaderAt(ctx context.Context, name string) (types.ReaderAtCloser, int64, error) {
	fh, err := os.Open(f.path(name))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open image: %w", err)
	}
	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, 0, fmt.Errorf("failed to stat image: %w", err)
	}
	if st.IsDir() {
		fh.Close()
		return nil, 0, fmt.Errorf("%s is a directory", name)
	}
	return fh, st.Size(), nil
}

// ReadRange reads a range of image data
func (f *FileBackend) ReadRange(ctx context.Context, name string, start, end int64) ([]byte, error) {
	fh, size, err := f.OpenReaderAt(ctx, name)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	if start < 0 {
		start = 0
	}
	if end < 0 || end > size {
		end = size
	}
	if start >= end {
		return []byte{}, nil
	}
	buf := make([]byte, end-start)
	n, err := fh.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return buf[:n], nil
}

// Size returns the image length
func (f *FileBackend) Size(ctx context.Context, name string) (int64, error) {
	st, err := os.Stat(f.path(name))
	if err != nil {
		return 0, fmt.Errorf("failed to stat image: %w", err)
	}
	return st.Size(), nil
}

// Close is a no-op; handles are closed with their images
func (f *FileBackend) Close() error { return nil }
