package fuse

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

// permissions of every node: read and execute for all, never write
const nodePerm os.FileMode = 0555

// Attr represents file attributes
type Attr struct {
	Mode      os.FileMode
	Size      int64
	Nlink     uint32
	Blocks    uint64
	BlockSize uint32
	Mtime     time.Time
	Uid       uint32
	Gid       uint32
}

// GetAttr retrieves the attributes of a path
func (fs *Filesystem) GetAttr(ctx context.Context, path string) (*Attr, error) {
	t := fs.Resolve(path)
	fs.log.Debug("getattr", zap.String("path", path), zap.Stringer("target", t.Kind))
	if t.Kind == TargetNone {
		return nil, ErrNotFound
	}
	return fs.attrOf(t), nil
}

func (fs *Filesystem) attrOf(t Target) *Attr {
	switch t.Kind {
	case TargetRoot:
		return fs.rootAttr()
	case TargetFolder:
		return fs.folderAttr(t.Folder)
	case TargetRecord:
		return fs.recordAttr(t.Record, t.Fork)
	}
	return nil
}

func (fs *Filesystem) rootAttr() *Attr {
	mdb := fs.vol.MDB()
	a := &Attr{
		Mode:      os.ModeDir | nodePerm,
		Size:      mdb.TotalBytes(),
		Nlink:     2,
		Blocks:    mdb.UsedBlocks(),
		BlockSize: mdb.BlockSize,
		Mtime:     volumeTime(mdb),
		Uid:       fs.uid,
		Gid:       fs.gid,
	}
	if fs.folders {
		if root, ok := fs.vol.FindFolder(mfs.FolderRoot); ok {
			a.Nlink += uint32(root.Subdirs)
		}
	}
	return a
}

func (fs *Filesystem) folderAttr(f *mfs.Folder) *Attr {
	return &Attr{
		Mode:  os.ModeDir | nodePerm,
		Nlink: 2 + uint32(f.Subdirs),
		Mtime: folderTime(f),
		Uid:   fs.uid,
		Gid:   fs.gid,
	}
}

func (fs *Filesystem) recordAttr(rec *mfs.Record, kind mfs.ForkKind) *Attr {
	size := int64(rec.DataLength)
	if kind == mfs.ForkAppleDouble {
		size = int64(rec.RsrcLength) + mfs.AppleDoubleHeaderLength
	}
	return &Attr{
		Mode:      nodePerm,
		Size:      size,
		Nlink:     1,
		BlockSize: fs.vol.MDB().BlockSize,
		Mtime:     recordTime(rec),
		Uid:       fs.uid,
		Gid:       fs.gid,
	}
}
