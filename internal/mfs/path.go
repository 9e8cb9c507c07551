package mfs

import "strings"

// PathType classifies a native path
type PathType int

const (
	PathNone PathType = iota
	PathFile
	PathFolder
)

// PathSeparator separates components of a native path
const PathSeparator = ":"

func (t PathType) String() string {
	switch t {
	case PathFile:
		return "file"
	case PathFolder:
		return "folder"
	default:
		return "none"
	}
}

// PathInfo reports whether a ':'-separated native path names a file or a
// folder. Components are matched exactly; the top level holds members of
// both the root and the desktop folder. Without FlagFolders only top-level
// files exist.
func (v *Volume) PathInfo(path string) PathType {
	t, _ := v.walk(path)
	return t
}

// ResolveFolder returns the folder a native path names, following each
// component through its parent. A file at the path shadows a folder.
func (v *Volume) ResolveFolder(path string) (*Folder, bool) {
	t, f := v.walk(path)
	if t != PathFolder || f == nil {
		return nil, false
	}
	return f, true
}

func (v *Volume) walk(path string) (PathType, *Folder) {
	var parts []string
	for _, p := range strings.Split(path, PathSeparator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return PathFolder, v.folderByID[FolderRoot]
	}
	if v.flags&FlagFolders == 0 {
		if _, ok := v.FindRecord(parts[0]); ok && len(parts) == 1 {
			return PathFile, nil
		}
		return PathNone, nil
	}

	current := FolderRoot
	for i, name := range parts {
		last := i == len(parts)-1
		if last {
			if rec, ok := v.FindRecord(name); ok && v.inFolder(v.RecordFolder(rec), current) {
				return PathFile, nil
			}
		}
		child, ok := v.childFolder(current, name)
		if !ok {
			return PathNone, nil
		}
		if last {
			return PathFolder, child
		}
		current = child.ID
	}
	return PathNone, nil
}

// inFolder reports whether an item filed in id is visible inside dir
func (v *Volume) inFolder(id, dir int16) bool {
	if dir == FolderRoot {
		return id == FolderRoot || id == FolderDesktop
	}
	return id == dir
}

func (v *Volume) childFolder(dir int16, name string) (*Folder, bool) {
	for _, f := range v.folders {
		if f.Reserved() || f.Name != name {
			continue
		}
		if v.inFolder(f.Parent, dir) {
			return f, true
		}
	}
	return nil, false
}
