package fuse

import (
	"strings"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

// TargetKind tags the result of resolving a path
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetRoot
	TargetRecord
	TargetFolder
)

func (k TargetKind) String() string {
	switch k {
	case TargetRoot:
		return "root"
	case TargetRecord:
		return "record"
	case TargetFolder:
		return "folder"
	default:
		return "none"
	}
}

// Target is a resolved path. Record and Fork are set for TargetRecord,
// Folder for TargetFolder.
type Target struct {
	Kind   TargetKind
	Record *mfs.Record
	Fork   mfs.ForkKind
	Folder *mfs.Folder
}

// Resolve maps an absolute POSIX path onto the volume. A path that names
// nothing yields TargetNone; resolution itself never fails.
func (fs *Filesystem) Resolve(path string) Target {
	dir, base := splitPath(path)
	if base == "" {
		return Target{Kind: TargetRoot}
	}
	// flat mounts have nothing below the root
	if !fs.folders && len(dir) > 0 {
		return Target{}
	}
	name, err := ToNative(base)
	if err != nil {
		return Target{}
	}

	if strings.HasPrefix(name, CompanionPrefix) {
		bare := name[len(CompanionPrefix):]
		if rec, ok := fs.vol.FindRecord(bare); ok && fs.classify(dir, bare) == mfs.PathFile {
			return Target{Kind: TargetRecord, Record: rec, Fork: mfs.ForkAppleDouble}
		}
	}
	if rec, ok := fs.vol.FindRecord(name); ok && fs.classify(dir, name) == mfs.PathFile {
		return Target{Kind: TargetRecord, Record: rec, Fork: mfs.ForkData}
	}
	if fs.folders {
		if p, err := nativePath(dir, name); err == nil {
			if folder, ok := fs.vol.ResolveFolder(p); ok {
				return Target{Kind: TargetFolder, Folder: folder}
			}
		}
	}
	return Target{}
}

// classify reports what the native name denotes inside dir. Flat mounts do
// no classification: every record sits at the root.
func (fs *Filesystem) classify(dir []string, name string) mfs.PathType {
	if !fs.folders {
		return mfs.PathFile
	}
	p, err := nativePath(dir, name)
	if err != nil {
		return mfs.PathNone
	}
	return fs.vol.PathInfo(p)
}
