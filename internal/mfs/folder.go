package mfs

import (
	"encoding/binary"
	"fmt"
)

// Reserved folder identifiers used by the Finder in fdFldr
const (
	FolderRoot    int16 = 0
	FolderDesktop int16 = -2
	FolderTrash   int16 = -3
)

// DesktopFileName is the name of the Finder file holding the folder catalog
const DesktopFileName = "Desktop"

// layout of the FOBJ resource data
const (
	fobjTypeOffset       = 0x00
	fobjLocationOffset   = 0x02
	fobjParentOffset     = 0x0A
	fobjCreateDateOffset = 0x1E
	fobjModDateOffset    = 0x22
	fobjMinSize          = 0x26

	fobjTypeFolder = 0x0008
)

// Folder is an emulated directory from the Finder's folder catalog
type Folder struct {
	ID         int16
	Parent     int16
	Name       string // native encoding
	Subdirs    int
	CreateDate uint32
	ModDate    uint32
	Location   [4]byte
}

// Reserved reports whether f is the root or desktop folder
func (f *Folder) Reserved() bool {
	return f.ID == FolderRoot || f.ID == FolderDesktop
}

func parseFolder(res resource) (*Folder, error) {
	if len(res.Data) < fobjMinSize {
		return nil, fmt.Errorf("FOBJ %d is %d bytes: %w", res.ID, len(res.Data), ErrCorrupt)
	}
	be := binary.BigEndian
	f := &Folder{
		ID:         res.ID,
		Parent:     int16(be.Uint16(res.Data[fobjParentOffset:])),
		Name:       res.Name,
		CreateDate: be.Uint32(res.Data[fobjCreateDateOffset:]),
		ModDate:    be.Uint32(res.Data[fobjModDateOffset:]),
	}
	copy(f.Location[:], res.Data[fobjLocationOffset:fobjLocationOffset+4])
	return f, nil
}

// loadFolders builds the folder catalog from the Desktop file's resource fork.
// Root and desktop are synthesized when the catalog does not define them.
func (v *Volume) loadFolders() error {
	var folders []*Folder
	if desk, ok := v.FindRecord(DesktopFileName); ok && desk.RsrcLength > 0 {
		fork, err := v.OpenFork(desk, ForkResource)
		if err != nil {
			return fmt.Errorf("opening Desktop resource fork: %w", err)
		}
		buf := make([]byte, fork.Len())
		_, err = fork.ReadAt(buf, 0)
		fork.Close()
		if err != nil {
			return fmt.Errorf("reading Desktop resource fork: %w", err)
		}
		resources, err := parseResources(buf, "FOBJ")
		if err != nil {
			return fmt.Errorf("parsing Desktop resource fork: %w", err)
		}
		for _, res := range resources {
			if len(res.Data) >= 2 && binary.BigEndian.Uint16(res.Data[fobjTypeOffset:]) != fobjTypeFolder {
				continue
			}
			f, err := parseFolder(res)
			if err != nil {
				return err
			}
			folders = append(folders, f)
		}
	}

	v.folderByID = make(map[int16]*Folder, len(folders)+2)
	for _, f := range folders {
		if _, dup := v.folderByID[f.ID]; !dup {
			v.folderByID[f.ID] = f
		}
	}
	if _, ok := v.folderByID[FolderRoot]; !ok {
		root := &Folder{ID: FolderRoot, Parent: FolderRoot, Name: v.mdb.Name, CreateDate: v.mdb.CreateDate, ModDate: v.mdb.CreateDate}
		folders = append([]*Folder{root}, folders...)
		v.folderByID[FolderRoot] = root
	}
	if _, ok := v.folderByID[FolderDesktop]; !ok {
		desk := &Folder{ID: FolderDesktop, Parent: FolderDesktop, Name: DesktopFileName}
		folders = append(folders, desk)
		v.folderByID[FolderDesktop] = desk
	}

	for _, f := range folders {
		if f.Reserved() {
			continue
		}
		if f.Parent == FolderRoot || f.Parent == FolderDesktop {
			v.folderByID[FolderRoot].Subdirs++
			continue
		}
		if parent, ok := v.folderByID[f.Parent]; ok {
			parent.Subdirs++
		}
	}

	v.folders = folders
	v.folderIndex = newNameIndex()
	for _, f := range folders {
		if !f.Reserved() {
			v.folderIndex.insert(f.Name, f)
		}
	}
	return nil
}
