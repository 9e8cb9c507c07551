// Package mfs reads Macintosh File System volumes: the flat file directory,
// the allocation block map, both forks of every file and, optionally, the
// folder catalog the Finder keeps in the Desktop file.
//
// A Volume is immutable once Open returns. All read methods, including
// reads on distinct forks, are safe for concurrent use.
package mfs

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Flags select optional volume features at open time
type Flags int

const (
	// FlagFolders loads the folder catalog from the Desktop file
	FlagFolders Flags = 1 << iota
)

// Volume is an open MFS volume
type Volume struct {
	r      io.ReaderAt
	flags  Flags
	mdb    MDB
	bmap   blockMap
	closed atomic.Bool

	records     []*Record
	recordIndex *nameIndex

	folders     []*Folder
	folderByID  map[int16]*Folder
	folderIndex *nameIndex
}

// Open parses the volume structures from r
func Open(r io.ReaderAt, flags Flags) (*Volume, error) {
	head := make([]byte, 2*sectorSize)
	if _, err := r.ReadAt(head, mdbOffset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading master directory block: %w", err)
	}
	mdb, err := parseMDB(head)
	if err != nil {
		return nil, err
	}
	v := &Volume{r: r, flags: flags, mdb: mdb}

	// the block map runs from the end of the MDB up to the directory
	mapEnd := int64(mdb.DirStart) * sectorSize
	if mapEnd <= mdbOffset+mdbSize {
		return nil, fmt.Errorf("directory starts inside the master directory block: %w", ErrCorrupt)
	}
	mapBuf := make([]byte, mapEnd-(mdbOffset+mdbSize))
	if _, err := r.ReadAt(mapBuf, mdbOffset+mdbSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading allocation block map: %w", err)
	}
	if v.bmap, err = parseBlockMap(mapBuf, int(mdb.BlockCount)); err != nil {
		return nil, err
	}

	dir := make([]byte, int(mdb.DirLength)*sectorSize)
	if _, err := r.ReadAt(dir, int64(mdb.DirStart)*sectorSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file directory: %w", err)
	}
	if v.records, err = parseDirectory(dir); err != nil {
		return nil, err
	}
	v.recordIndex = newNameIndex()
	for _, rec := range v.records {
		v.recordIndex.insert(rec.Name, rec)
	}

	if flags&FlagFolders != 0 {
		if err := v.loadFolders(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Close releases the volume and closes the underlying reader when it is an io.Closer
func (v *Volume) Close() error {
	if !v.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if c, ok := v.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Name returns the volume name in native encoding
func (v *Volume) Name() string { return v.mdb.Name }

// MDB returns a copy of the master directory block
func (v *Volume) MDB() MDB { return v.mdb }

// Flags returns the flags the volume was opened with
func (v *Volume) Flags() Flags { return v.flags }

// Records returns the file directory in on-disk order. The slice must not be modified.
func (v *Volume) Records() []*Record { return v.records }

// FindRecord looks up a record by exact native name
func (v *Volume) FindRecord(name string) (*Record, bool) {
	val, ok := v.recordIndex.get(name)
	if !ok {
		return nil, false
	}
	return val.(*Record), true
}

// Folders returns the folder catalog, or nil without FlagFolders
func (v *Volume) Folders() []*Folder { return v.folders }

// FindFolder looks up a folder by identifier
func (v *Volume) FindFolder(id int16) (*Folder, bool) {
	f, ok := v.folderByID[id]
	return f, ok
}

// FindFolderName returns the first non-reserved folder with the exact native name
func (v *Volume) FindFolderName(name string) (*Folder, bool) {
	val, ok := v.folderIndex.get(name)
	if !ok {
		return nil, false
	}
	return val.(*Folder), true
}

// RecordFolder returns the folder a record is listed in. Records filed in a
// folder that does not exist belong to the root.
func (v *Volume) RecordFolder(rec *Record) int16 {
	id := rec.Folder()
	if _, ok := v.folderByID[id]; !ok {
		return FolderRoot
	}
	return id
}

func (v *Volume) blockOffset(block uint16) int64 {
	return int64(v.mdb.AllocStart)*sectorSize + int64(block-firstBlock)*int64(v.mdb.BlockSize)
}
