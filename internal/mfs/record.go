package mfs

import (
	"encoding/binary"
	"fmt"
)

const (
	recordHeaderSize = 0x32
	recordFlagUsed   = 0x80

	// offset of fdFldr inside flUsrWds
	finderInfoFolderOffset = 14
)

// Record is one entry of the flat file directory
type Record struct {
	Flags        uint8    // flFlags
	Version      uint8    // flTyp
	FinderInfo   [16]byte // flUsrWds
	FileNum      uint32   // flFlNum
	DataStart    uint16   // flStBlk
	DataLength   uint32   // flLgLen
	DataPhysical uint32   // flPyLen
	RsrcStart    uint16   // flRStBlk
	RsrcLength   uint32   // flRLgLen
	RsrcPhysical uint32   // flRPyLen
	CreateDate   uint32   // flCrDat
	ModDate      uint32   // flMdDat
	Name         string   // flNam, native encoding
}

// Folder returns the folder the Finder filed this record in (fdFldr)
func (r *Record) Folder() int16 {
	return int16(binary.BigEndian.Uint16(r.FinderInfo[finderInfoFolderOffset:]))
}

// Type returns the four-character file type
func (r *Record) Type() string {
	return string(r.FinderInfo[0:4])
}

// Creator returns the four-character creator code
func (r *Record) Creator() string {
	return string(r.FinderInfo[4:8])
}

// parseRecord decodes one directory entry. It returns the entry and the
// number of bytes it occupies, or a nil record when buf holds no entry.
func parseRecord(buf []byte) (*Record, int, error) {
	if len(buf) == 0 || buf[0]&recordFlagUsed == 0 {
		return nil, 0, nil
	}
	if len(buf) < recordHeaderSize+1 {
		return nil, 0, fmt.Errorf("directory entry truncated: %w", ErrCorrupt)
	}
	nameLen := int(buf[recordHeaderSize])
	size := recordHeaderSize + 1 + nameLen
	if size > len(buf) {
		return nil, 0, fmt.Errorf("directory entry name overruns sector: %w", ErrCorrupt)
	}
	be := binary.BigEndian
	rec := &Record{
		Flags:        buf[0x00],
		Version:      buf[0x01],
		FileNum:      be.Uint32(buf[0x12:]),
		DataStart:    be.Uint16(buf[0x16:]),
		DataLength:   be.Uint32(buf[0x18:]),
		DataPhysical: be.Uint32(buf[0x1C:]),
		RsrcStart:    be.Uint16(buf[0x20:]),
		RsrcLength:   be.Uint32(buf[0x22:]),
		RsrcPhysical: be.Uint32(buf[0x26:]),
		CreateDate:   be.Uint32(buf[0x2A:]),
		ModDate:      be.Uint32(buf[0x2E:]),
		Name:         string(buf[recordHeaderSize+1 : size]),
	}
	copy(rec.FinderInfo[:], buf[0x02:0x12])
	if size%2 != 0 {
		size++
	}
	return rec, size, nil
}

// parseDirectory walks the directory sectors in on-disk order
func parseDirectory(buf []byte) ([]*Record, error) {
	var records []*Record
	for sector := 0; sector+sectorSize <= len(buf); sector += sectorSize {
		s := buf[sector : sector+sectorSize]
		for off := 0; off < len(s); {
			rec, n, err := parseRecord(s[off:])
			if err != nil {
				return nil, fmt.Errorf("sector %d offset %d: %w", sector/sectorSize, off, err)
			}
			if rec == nil {
				break
			}
			records = append(records, rec)
			off += n
		}
	}
	return records, nil
}
