package fuse

import (
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

var (
	// ErrNotFound reports a path that resolves to nothing
	ErrNotFound = fmt.Errorf("no such entry: %w", syscall.ENOENT)

	// ErrUnsupported reports a folder operation on a flat mount. Flat mounts
	// have no folders, so it surfaces exactly like ErrNotFound.
	ErrUnsupported = fmt.Errorf("folders are not emulated: %w", syscall.ENOENT)

	// ErrReadOnly reports an attempt to open a file for writing
	ErrReadOnly = fmt.Errorf("read-only volume: %w", syscall.EROFS)
)

// Fork is an open byte stream returned by a Volume
type Fork interface {
	io.ReaderAt
	io.Closer
}

// Volume is the volume access the filesystem consumes. *mfs.Volume
// satisfies it through NewVolume.
type Volume interface {
	Name() string
	MDB() mfs.MDB
	Records() []*mfs.Record
	FindRecord(name string) (*mfs.Record, bool)
	Folders() []*mfs.Folder
	FindFolder(id int16) (*mfs.Folder, bool)
	FindFolderName(name string) (*mfs.Folder, bool)
	PathInfo(path string) mfs.PathType
	ResolveFolder(path string) (*mfs.Folder, bool)
	RecordFolder(rec *mfs.Record) int16
	OpenFork(rec *mfs.Record, kind mfs.ForkKind) (Fork, error)
	Close() error
}

// NewVolume adapts an open MFS volume
func NewVolume(v *mfs.Volume) Volume {
	return &mfsAdapter{Volume: v}
}

// mfsAdapter narrows the concrete fork type to the Fork interface
type mfsAdapter struct {
	*mfs.Volume
}

func (a *mfsAdapter) OpenFork(rec *mfs.Record, kind mfs.ForkKind) (Fork, error) {
	f, err := a.Volume.OpenFork(rec, kind)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Options configure a Filesystem. They are fixed for the life of the mount.
type Options struct {
	// Folders emulates the Finder folder hierarchy instead of a flat root
	Folders bool
	// Serialize runs all fork opens, reads and closes under one lock
	Serialize bool
	Uid       uint32
	Gid       uint32
	Logger    *zap.Logger
}

// Filesystem translates POSIX paths into an MFS volume. It holds no mutable
// state besides the optional fork lock and is safe for concurrent use.
type Filesystem struct {
	vol       Volume
	folders   bool
	serialize bool
	forkMu    sync.Mutex
	uid       uint32
	gid       uint32
	log       *zap.Logger
}

// NewFilesystem creates a filesystem over vol
func NewFilesystem(vol Volume, opts Options) *Filesystem {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Filesystem{
		vol:       vol,
		folders:   opts.Folders,
		serialize: opts.Serialize,
		uid:       opts.Uid,
		gid:       opts.Gid,
		log:       log,
	}
}

// DefaultOptions returns options owned by the calling user
func DefaultOptions() Options {
	return Options{
		Uid: uint32(os.Getuid()),
		Gid: uint32(os.Getgid()),
	}
}

// Folders reports whether folder emulation is active
func (fs *Filesystem) Folders() bool { return fs.folders }

// VolumeName returns the volume name in presentation form
func (fs *Filesystem) VolumeName() string {
	name, err := ToPresentation(fs.vol.Name())
	if err != nil {
		return fs.vol.Name()
	}
	return name
}

// Close closes the underlying volume
func (fs *Filesystem) Close() error {
	return fs.vol.Close()
}

func (fs *Filesystem) lockForks() func() {
	if !fs.serialize {
		return func() {}
	}
	fs.forkMu.Lock()
	return fs.forkMu.Unlock
}

// Statfs represents filesystem statistics
type Statfs struct {
	Bsize   uint32 // allocation block size
	Blocks  uint64 // total allocation blocks
	Bfree   uint64 // free blocks, verbatim from the MDB
	Bavail  uint64
	Files   uint64 // files in the directory
	Ffree   uint64
	Namelen uint32
}

// maxNameLength is reported by statfs
const maxNameLength = 255

// Statfs returns volume statistics straight from the master directory block
func (fs *Filesystem) Statfs() *Statfs {
	mdb := fs.vol.MDB()
	return &Statfs{
		Bsize:   mdb.BlockSize,
		Blocks:  uint64(mdb.BlockCount),
		Bfree:   uint64(mdb.FreeBlocks),
		Bavail:  uint64(mdb.FreeBlocks),
		Files:   uint64(mdb.FileCount),
		Namelen: maxNameLength,
	}
}
