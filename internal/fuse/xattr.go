package fuse

import (
	"context"

	"bazil.org/fuse"
	"go.uber.org/zap"
)

// XattrFinderInfo carries the record's Finder info padded to 32 bytes
const XattrFinderInfo = "com.apple.FinderInfo"

const finderInfoXattrSize = 32

// ErrNoXattr reports a missing extended attribute
var ErrNoXattr = fuse.ErrNoXattr

// GetXattr gets an extended attribute value. Only files carry attributes.
func (fs *Filesystem) GetXattr(ctx context.Context, path string, name string) ([]byte, error) {
	t := fs.Resolve(path)
	fs.log.Debug("getxattr", zap.String("path", path), zap.String("name", name))
	switch {
	case t.Kind == TargetNone:
		return nil, ErrNotFound
	case t.Kind != TargetRecord, name != XattrFinderInfo:
		return nil, ErrNoXattr
	}
	value := make([]byte, finderInfoXattrSize)
	copy(value, t.Record.FinderInfo[:])
	return value, nil
}

// ListXattr lists all extended attribute names
func (fs *Filesystem) ListXattr(ctx context.Context, path string) ([]string, error) {
	t := fs.Resolve(path)
	switch t.Kind {
	case TargetNone:
		return nil, ErrNotFound
	case TargetRecord:
		return []string{XattrFinderInfo}, nil
	}
	return []string{}, nil
}
