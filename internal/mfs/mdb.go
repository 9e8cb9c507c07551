package mfs

import (
	"encoding/binary"
	"fmt"
)

const (
	sectorSize = 512

	// mdbOffset is the byte offset of the master directory block (sector 2)
	mdbOffset = 1024
	mdbSize   = 64

	// Signature is the drSigWord value of every MFS volume
	Signature = 0xD2D7

	maxVolumeNameLength = 27
)

// MDB is the master directory block of an MFS volume
type MDB struct {
	Signature  uint16 // drSigWord
	CreateDate uint32 // drCrDate
	BackupDate uint32 // drLsBkUp
	Attributes uint16 // drAtrb
	FileCount  uint16 // drNmFls
	DirStart   uint16 // drDirSt, first sector of the file directory
	DirLength  uint16 // drBlLen, sectors in the file directory
	BlockCount uint16 // drNmAlBlks
	BlockSize  uint32 // drAlBlkSiz
	ClumpSize  uint32 // drClpSiz
	AllocStart uint16 // drAlBlSt, first sector of allocation block 2
	NextFileID uint32 // drNxtFNum
	FreeBlocks uint16 // drFreeBks
	Name       string // drVN, native encoding
}

func parseMDB(buf []byte) (MDB, error) {
	if len(buf) < mdbSize {
		return MDB{}, fmt.Errorf("master directory block: %w", ErrCorrupt)
	}
	be := binary.BigEndian
	mdb := MDB{
		Signature:  be.Uint16(buf[0x00:]),
		CreateDate: be.Uint32(buf[0x02:]),
		BackupDate: be.Uint32(buf[0x06:]),
		Attributes: be.Uint16(buf[0x0A:]),
		FileCount:  be.Uint16(buf[0x0C:]),
		DirStart:   be.Uint16(buf[0x0E:]),
		DirLength:  be.Uint16(buf[0x10:]),
		BlockCount: be.Uint16(buf[0x12:]),
		BlockSize:  be.Uint32(buf[0x14:]),
		ClumpSize:  be.Uint32(buf[0x18:]),
		AllocStart: be.Uint16(buf[0x1C:]),
		NextFileID: be.Uint32(buf[0x1E:]),
		FreeBlocks: be.Uint16(buf[0x22:]),
	}
	if mdb.Signature != Signature {
		return MDB{}, fmt.Errorf("signature 0x%04X: %w", mdb.Signature, ErrBadSignature)
	}
	if mdb.BlockSize == 0 || mdb.BlockSize%sectorSize != 0 {
		return MDB{}, fmt.Errorf("allocation block size %d: %w", mdb.BlockSize, ErrCorrupt)
	}
	nameLen := int(buf[0x24])
	if nameLen > maxVolumeNameLength {
		nameLen = maxVolumeNameLength
	}
	mdb.Name = string(buf[0x25 : 0x25+nameLen])
	return mdb, nil
}

// TotalBytes is the size of the allocation area
func (m MDB) TotalBytes() int64 {
	return int64(m.BlockSize) * int64(m.BlockCount)
}

// UsedBlocks is the number of allocation blocks in use
func (m MDB) UsedBlocks() uint64 {
	if m.FreeBlocks > m.BlockCount {
		return 0
	}
	return uint64(m.BlockCount - m.FreeBlocks)
}
