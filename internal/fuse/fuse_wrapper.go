package fuse

import (
	"context"
	"errors"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// FuseFS implements the fuse.FS interface
type FuseFS struct {
	filesystem *Filesystem
}

var _ fs.FS = (*FuseFS)(nil)
var _ fs.FSStatfser = (*FuseFS)(nil)

// NewFuseFS wraps a Filesystem for serving with bazil
func NewFuseFS(filesystem *Filesystem) *FuseFS {
	return &FuseFS{filesystem: filesystem}
}

// Root returns the root directory
func (f *FuseFS) Root() (fs.Node, error) {
	return &Dir{
		filesystem: f.filesystem,
		path:       "/",
	}, nil
}

// Statfs returns filesystem statistics
func (f *FuseFS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	statfs := f.filesystem.Statfs()
	resp.Blocks = statfs.Blocks
	resp.Bfree = statfs.Bfree
	resp.Bavail = statfs.Bavail
	resp.Files = statfs.Files
	resp.Ffree = statfs.Ffree
	resp.Bsize = statfs.Bsize
	resp.Namelen = statfs.Namelen
	resp.Frsize = statfs.Bsize
	return nil
}

// toErrno converts an error into the errno reported to the kernel
func toErrno(err error) error {
	if err == nil {
		return nil
	}
	var ferr fuse.Errno
	if errors.As(err, &ferr) {
		return ferr
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return fuse.Errno(errno)
	}
	return fuse.EIO
}

func fillAttr(a *fuse.Attr, attr *Attr) {
	a.Mode = attr.Mode
	a.Size = uint64(attr.Size)
	a.Nlink = attr.Nlink
	a.Blocks = attr.Blocks
	a.BlockSize = attr.BlockSize
	a.Mtime = attr.Mtime
	a.Ctime = attr.Mtime
	a.Atime = attr.Mtime
	a.Uid = attr.Uid
	a.Gid = attr.Gid
}

func childPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// Dir represents a directory node
type Dir struct {
	filesystem *Filesystem
	path       string
}

var _ fs.Node = (*Dir)(nil)
var _ fs.NodeStringLookuper = (*Dir)(nil)
var _ fs.HandleReadDirAller = (*Dir)(nil)
var _ fs.NodeGetxattrer = (*Dir)(nil)
var _ fs.NodeListxattrer = (*Dir)(nil)

// Attr returns directory attributes
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := d.filesystem.GetAttr(ctx, d.path)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(a, attr)
	return nil
}

// Lookup looks up a child node
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	p := childPath(d.path, name)
	attr, err := d.filesystem.GetAttr(ctx, p)
	if err != nil {
		return nil, toErrno(err)
	}
	if attr.Mode.IsDir() {
		return &Dir{filesystem: d.filesystem, path: p}, nil
	}
	return &File{filesystem: d.filesystem, path: p}, nil
}

// ReadDirAll reads all directory entries
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	entries, err := d.filesystem.ReadDir(ctx, d.path)
	if err != nil {
		return nil, toErrno(err)
	}
	dirents := make([]fuse.Dirent, 0, len(entries))
	for _, entry := range entries {
		dirent := fuse.Dirent{Name: entry.Name, Type: fuse.DT_File}
		if entry.IsDir {
			dirent.Type = fuse.DT_Dir
		}
		dirents = append(dirents, dirent)
	}
	return dirents, nil
}

// Getxattr gets an extended attribute
func (d *Dir) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	value, err := d.filesystem.GetXattr(ctx, d.path, req.Name)
	if err != nil {
		return toErrno(err)
	}
	resp.Xattr = value
	return nil
}

// Listxattr lists extended attributes
func (d *Dir) Listxattr(ctx context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	names, err := d.filesystem.ListXattr(ctx, d.path)
	if err != nil {
		return toErrno(err)
	}
	resp.Append(names...)
	return nil
}

// File represents a data file or AppleDouble companion
type File struct {
	filesystem *Filesystem
	path       string
}

var _ fs.Node = (*File)(nil)
var _ fs.NodeOpener = (*File)(nil)
var _ fs.NodeGetxattrer = (*File)(nil)
var _ fs.NodeListxattrer = (*File)(nil)

// Attr returns file attributes
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	attr, err := f.filesystem.GetAttr(ctx, f.path)
	if err != nil {
		return toErrno(err)
	}
	fillAttr(a, attr)
	return nil
}

// Open opens a fork session. Write access is refused.
func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if !req.Flags.IsReadOnly() {
		return nil, toErrno(ErrReadOnly)
	}
	session, err := f.filesystem.Open(ctx, f.path)
	if err != nil {
		return nil, toErrno(err)
	}
	// contents never change while mounted
	resp.Flags |= fuse.OpenKeepCache
	return &Handle{filesystem: f.filesystem, session: session}, nil
}

// Getxattr gets an extended attribute
func (f *File) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	value, err := f.filesystem.GetXattr(ctx, f.path, req.Name)
	if err != nil {
		return toErrno(err)
	}
	resp.Xattr = value
	return nil
}

// Listxattr lists extended attributes
func (f *File) Listxattr(ctx context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	names, err := f.filesystem.ListXattr(ctx, f.path)
	if err != nil {
		return toErrno(err)
	}
	resp.Append(names...)
	return nil
}

// Handle is an open file
type Handle struct {
	filesystem *Filesystem
	session    *Session
}

var _ fs.Handle = (*Handle)(nil)
var _ fs.HandleReader = (*Handle)(nil)
var _ fs.HandleReleaser = (*Handle)(nil)

// Read reads fork data
func (h *Handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := h.filesystem.Read(ctx, h.session, req.Size, req.Offset)
	if err != nil {
		return toErrno(err)
	}
	resp.Data = data
	return nil
}

// Release releases a file handle
func (h *Handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	return toErrno(h.filesystem.Release(ctx, h.session))
}
