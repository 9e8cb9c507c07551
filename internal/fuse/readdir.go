package fuse

import (
	"context"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

// DirEntry represents a directory entry. Attr is nil for "..".
type DirEntry struct {
	Name  string
	IsDir bool
	Attr  *Attr
}

// FillFunc receives directory entries in listing order. A nil attr is allowed.
type FillFunc func(name string, attr *Attr)

// Enumerate lists a directory into fill. "." and ".." always come first,
// followed by records (each as a data entry then its companion) and then
// folders, both in volume order. The listing is produced in one pass.
func (fs *Filesystem) Enumerate(ctx context.Context, path string, fill FillFunc) error {
	// non-root folders are found by final component; ancestors are not checked
	_, base := splitPath(path)
	fs.log.Debug("readdir", zap.String("path", path))
	if base == "" {
		fill(".", fs.rootAttr())
		fill("..", nil)
		fs.listRoot(fill)
		return nil
	}
	if !fs.folders {
		return ErrUnsupported
	}
	name, err := ToNative(base)
	if err != nil {
		return ErrNotFound
	}
	folder, ok := fs.vol.FindFolderName(name)
	if !ok {
		return ErrNotFound
	}
	fill(".", fs.folderAttr(folder))
	fill("..", nil)
	fs.listFolder(folder.ID, fill)
	return nil
}

// ReadDir lists directory entries
func (fs *Filesystem) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	var entries []DirEntry
	err := fs.Enumerate(ctx, path, func(name string, attr *Attr) {
		e := DirEntry{Name: name, Attr: attr}
		if attr == nil || attr.Mode.IsDir() {
			e.IsDir = true
		}
		entries = append(entries, e)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func atRoot(id int16) bool {
	return id == mfs.FolderRoot || id == mfs.FolderDesktop
}

func (fs *Filesystem) listRoot(fill FillFunc) {
	for _, rec := range fs.vol.Records() {
		if fs.folders && !atRoot(fs.vol.RecordFolder(rec)) {
			continue
		}
		fs.fillRecord(rec, fill)
	}
	if !fs.folders {
		return
	}
	for _, f := range fs.vol.Folders() {
		if !f.Reserved() && atRoot(f.Parent) {
			fs.fillFolder(f, fill)
		}
	}
}

func (fs *Filesystem) listFolder(id int16, fill FillFunc) {
	for _, rec := range fs.vol.Records() {
		if fs.vol.RecordFolder(rec) == id {
			fs.fillRecord(rec, fill)
		}
	}
	for _, f := range fs.vol.Folders() {
		if !f.Reserved() && f.Parent == id {
			fs.fillFolder(f, fill)
		}
	}
}

func (fs *Filesystem) fillRecord(rec *mfs.Record, fill FillFunc) {
	name, err := ToPresentation(rec.Name)
	if err != nil {
		fs.log.Warn("skipping record", zap.Uint32("file", rec.FileNum), zap.Error(err))
		return
	}
	fill(name, fs.recordAttr(rec, mfs.ForkData))
	fill(CompanionPrefix+name, fs.recordAttr(rec, mfs.ForkAppleDouble))
}

func (fs *Filesystem) fillFolder(f *mfs.Folder, fill FillFunc) {
	name, err := ToPresentation(f.Name)
	if err != nil {
		fs.log.Warn("skipping folder", zap.Int16("folder", f.ID), zap.Error(err))
		return
	}
	fill(name, fs.folderAttr(f))
}
