package fuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

// Session is one open file: a fork handle private to a single file
// descriptor. Distinct sessions may be used concurrently; one session must
// not be read and released at the same time.
type Session struct {
	path   string
	rec    *mfs.Record
	kind   mfs.ForkKind
	fork   Fork
	closed atomic.Bool
}

// Kind returns the fork the session reads
func (s *Session) Kind() mfs.ForkKind { return s.kind }

// Open resolves path and opens the matching fork. Anything but a record
// fails with ErrNotFound before the volume is asked for a fork.
func (fs *Filesystem) Open(ctx context.Context, path string) (*Session, error) {
	t := fs.Resolve(path)
	fs.log.Debug("open", zap.String("path", path), zap.Stringer("target", t.Kind))
	if t.Kind != TargetRecord {
		return nil, ErrNotFound
	}

	unlock := fs.lockForks()
	fork, err := fs.vol.OpenFork(t.Record, t.Fork)
	unlock()
	if err != nil {
		fs.log.Warn("open fork failed", zap.String("path", path), zap.Stringer("fork", t.Fork), zap.Error(err))
		return nil, fmt.Errorf("open %s fork of %s: %w", t.Fork, path, err)
	}
	return &Session{path: path, rec: t.Record, kind: t.Fork, fork: fork}, nil
}

// Read returns up to size bytes at off. Fewer bytes come back at the end of
// the fork and none past it.
func (fs *Filesystem) Read(ctx context.Context, s *Session, size int, off int64) ([]byte, error) {
	if s.closed.Load() {
		return nil, fmt.Errorf("read %s: %w", s.path, mfs.ErrClosed)
	}
	if size <= 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	unlock := fs.lockForks()
	n, err := s.fork.ReadAt(buf, off)
	unlock()
	if err != nil && !errors.Is(err, io.EOF) {
		fs.log.Warn("read failed", zap.String("path", s.path), zap.Int64("offset", off), zap.Error(err))
		return nil, fmt.Errorf("read %s at %d: %w", s.path, off, err)
	}
	return buf[:n], nil
}

// Release closes the session. The session is closed even when closing the
// fork fails; that failure is still returned.
func (fs *Filesystem) Release(ctx context.Context, s *Session) error {
	if !s.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("release %s: %w", s.path, mfs.ErrClosed)
	}
	fs.log.Debug("release", zap.String("path", s.path))
	unlock := fs.lockForks()
	err := s.fork.Close()
	unlock()
	if err != nil {
		fs.log.Warn("close fork failed", zap.String("path", s.path), zap.Error(err))
		return fmt.Errorf("release %s: %w", s.path, err)
	}
	return nil
}
