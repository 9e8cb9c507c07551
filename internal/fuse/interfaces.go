package fuse

// This file documents the FUSE interfaces implemented by mfsfuse

/*
FUSE Interfaces Documentation

The volume is read-only, so only the lookup, listing, read and attribute
interfaces from bazil.org/fuse/fs are implemented. Write-side interfaces
such as Setattr, Create, Mkdir and Setxattr are not implemented; the
kernel rejects those calls on a read-only mount before they reach the
server.

For more information, see: https://pkg.go.dev/bazil.org/fuse/fs
*/

// ============================================================================
// Filesystem-Level Interfaces
// ============================================================================

/*
FS Interface - Root filesystem node
Implemented by: FuseFS

type FS interface {
    Root() (Node, error)
}

Returns the Dir for "/".
*/

/*
FSStatfser Interface - Filesystem statistics
Implemented by: FuseFS

type FSStatfser interface {
    Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error
}

Reports allocation block size, block count, free blocks and file count from
the master directory block (used by "df").
*/

// ============================================================================
// Node-Level Interfaces
// ============================================================================

/*
Node Interface - Attributes
Implemented by: Dir, File

type Node interface {
    Attr(ctx context.Context, a *fuse.Attr) error
}
*/

/*
NodeStringLookuper Interface - Look up child nodes by name
Implemented by: Dir

type NodeStringLookuper interface {
    Lookup(ctx context.Context, name string) (Node, error)
}

Returns a Dir for the root and emulated folders, a File for data files and
"._" AppleDouble companions.
*/

/*
NodeOpener Interface - Open a file
Implemented by: File

type NodeOpener interface {
    Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (Handle, error)
}

Opens a fork session and returns it as a Handle. Write access fails with EROFS.
*/

/*
NodeGetxattrer / NodeListxattrer Interfaces - Extended attributes
Implemented by: Dir, File

Files expose com.apple.FinderInfo. Directories expose nothing.
*/

// ============================================================================
// Handle-Level Interfaces
// ============================================================================

/*
HandleReadDirAller Interface - Read a whole directory
Implemented by: Dir

type HandleReadDirAller interface {
    ReadDirAll(ctx context.Context) ([]fuse.Dirent, error)
}
*/

/*
HandleReader / HandleReleaser Interfaces - Read and close a fork session
Implemented by: Handle

type HandleReader interface {
    Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error
}

type HandleReleaser interface {
    Release(ctx context.Context, req *fuse.ReleaseRequest) error
}
*/
