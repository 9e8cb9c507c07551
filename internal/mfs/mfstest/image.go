// Package mfstest builds small MFS volume images in memory for tests.
package mfstest

import (
	"encoding/binary"
	"sort"
)

const (
	sectorSize = 512
	dirStart   = 4
	mdbOffset  = 1024
	mapOffset  = mdbOffset + 64
)

// File describes one file of the image
type File struct {
	Name    string // native encoding
	Folder  int16
	Type    string
	Creator string
	Data    []byte
	Rsrc    []byte
	ModDate uint32
}

// Folder describes one FOBJ entry of the Desktop file
type Folder struct {
	ID      int16
	Parent  int16
	Name    string
	ModDate uint32
}

// Image describes a whole volume
type Image struct {
	Name       string
	CreateDate uint32
	BlockSize  uint32 // defaults to 1024
	FreeBlocks int    // unallocated blocks appended after the files
	Files      []File
	Folders    []Folder // written as FOBJ resources of a Desktop file when non-empty
}

type placed struct {
	file       File
	fileNum    uint32
	dataStart  uint16
	rsrcStart  uint16
	dataBlocks int
	rsrcBlocks int
}

// Build lays out the image and returns its bytes
func Build(img Image) []byte {
	bs := img.BlockSize
	if bs == 0 {
		bs = 1024
	}
	files := append([]File(nil), img.Files...)
	if len(img.Folders) > 0 {
		files = append(files, File{Name: "Desktop", Type: "FNDR", Creator: "ERIK", Rsrc: desktopFork(img.Folders)})
	}

	// allocate blocks sequentially, data fork then resource fork
	next := 2
	var chains [][2]int // first block, count
	layout := make([]placed, len(files))
	blocksFor := func(n int) int { return (n + int(bs) - 1) / int(bs) }
	for i, f := range files {
		p := placed{file: f, fileNum: uint32(i + 1)}
		if p.dataBlocks = blocksFor(len(f.Data)); p.dataBlocks > 0 {
			p.dataStart = uint16(next)
			chains = append(chains, [2]int{next, p.dataBlocks})
			next += p.dataBlocks
		}
		if p.rsrcBlocks = blocksFor(len(f.Rsrc)); p.rsrcBlocks > 0 {
			p.rsrcStart = uint16(next)
			chains = append(chains, [2]int{next, p.rsrcBlocks})
			next += p.rsrcBlocks
		}
		layout[i] = p
	}
	blockCount := next - 2 + img.FreeBlocks

	dir := directory(layout)
	dirLength := len(dir) / sectorSize
	allocStart := dirStart + dirLength
	size := allocStart*sectorSize + blockCount*int(bs)
	buf := make([]byte, size)
	copy(buf[dirStart*sectorSize:], dir)

	be := binary.BigEndian
	mdb := buf[mdbOffset:]
	be.PutUint16(mdb[0x00:], 0xD2D7)
	be.PutUint32(mdb[0x02:], img.CreateDate)
	be.PutUint16(mdb[0x0C:], uint16(len(files)))
	be.PutUint16(mdb[0x0E:], dirStart)
	be.PutUint16(mdb[0x10:], uint16(dirLength))
	be.PutUint16(mdb[0x12:], uint16(blockCount))
	be.PutUint32(mdb[0x14:], bs)
	be.PutUint32(mdb[0x18:], bs)
	be.PutUint16(mdb[0x1C:], uint16(allocStart))
	be.PutUint32(mdb[0x1E:], uint32(len(files)+1))
	be.PutUint16(mdb[0x22:], uint16(img.FreeBlocks))
	mdb[0x24] = byte(len(img.Name))
	copy(mdb[0x25:], img.Name)

	for _, c := range chains {
		for b := c[0]; b < c[0]+c[1]; b++ {
			v := b + 1
			if b == c[0]+c[1]-1 {
				v = 1
			}
			putMapEntry(buf[mapOffset:], b-2, uint16(v))
		}
	}

	for _, p := range layout {
		if p.dataBlocks > 0 {
			copy(buf[allocStart*sectorSize+(int(p.dataStart)-2)*int(bs):], p.file.Data)
		}
		if p.rsrcBlocks > 0 {
			copy(buf[allocStart*sectorSize+(int(p.rsrcStart)-2)*int(bs):], p.file.Rsrc)
		}
	}
	return buf
}

func putMapEntry(m []byte, i int, v uint16) {
	o := i * 3 / 2
	if i%2 == 0 {
		m[o] = byte(v >> 4)
		m[o+1] = m[o+1]&0x0F | byte(v<<4)
	} else {
		m[o] = m[o]&0xF0 | byte(v>>8)
		m[o+1] = byte(v)
	}
}

func directory(layout []placed) []byte {
	var sectors [][]byte
	cur := make([]byte, sectorSize)
	off := 0
	for _, p := range layout {
		e := entry(p)
		if off+len(e) > sectorSize {
			sectors = append(sectors, cur)
			cur = make([]byte, sectorSize)
			off = 0
		}
		copy(cur[off:], e)
		off += len(e)
	}
	sectors = append(sectors, cur)
	// one empty trailing sector, as a real directory has slack
	sectors = append(sectors, make([]byte, sectorSize))
	out := make([]byte, 0, len(sectors)*sectorSize)
	for _, s := range sectors {
		out = append(out, s...)
	}
	return out
}

func entry(p placed) []byte {
	f := p.file
	size := 0x33 + len(f.Name)
	if size%2 != 0 {
		size++
	}
	be := binary.BigEndian
	e := make([]byte, size)
	e[0] = 0x80
	copy(e[0x02:0x06], pad4(f.Type))
	copy(e[0x06:0x0A], pad4(f.Creator))
	be.PutUint16(e[0x10:], uint16(f.Folder))
	be.PutUint32(e[0x12:], p.fileNum)
	be.PutUint16(e[0x16:], p.dataStart)
	be.PutUint32(e[0x18:], uint32(len(f.Data)))
	be.PutUint32(e[0x1C:], uint32(p.dataBlocks))
	be.PutUint16(e[0x20:], p.rsrcStart)
	be.PutUint32(e[0x22:], uint32(len(f.Rsrc)))
	be.PutUint32(e[0x26:], uint32(p.rsrcBlocks))
	be.PutUint32(e[0x2A:], f.ModDate)
	be.PutUint32(e[0x2E:], f.ModDate)
	e[0x32] = byte(len(f.Name))
	copy(e[0x33:], f.Name)
	return e
}

func pad4(s string) []byte {
	b := []byte("    ")
	copy(b, s)
	return b
}

// desktopFork writes a resource fork holding one FOBJ resource per folder
func desktopFork(folders []Folder) []byte {
	sorted := append([]Folder(nil), folders...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	be := binary.BigEndian
	const dataOff = 256
	var data, names []byte
	refs := make([]byte, 0, 12*len(sorted))
	for _, f := range sorted {
		obj := make([]byte, 0x26)
		be.PutUint16(obj[0x00:], 0x0008)
		be.PutUint16(obj[0x0A:], uint16(f.Parent))
		be.PutUint32(obj[0x1E:], f.ModDate)
		be.PutUint32(obj[0x22:], f.ModDate)

		ref := make([]byte, 12)
		be.PutUint16(ref[0:], uint16(f.ID))
		be.PutUint16(ref[2:], uint16(len(names)))
		be.PutUint32(ref[4:], uint32(len(data)))
		refs = append(refs, ref...)

		names = append(names, byte(len(f.Name)))
		names = append(names, f.Name...)

		var n [4]byte
		be.PutUint32(n[:], uint32(len(obj)))
		data = append(data, n[:]...)
		data = append(data, obj...)
	}

	const typeListOff = 28
	m := make([]byte, typeListOff)
	typeList := make([]byte, 10)
	be.PutUint16(typeList[0:], 0) // one type
	copy(typeList[2:6], "FOBJ")
	be.PutUint16(typeList[6:], uint16(len(sorted)-1))
	be.PutUint16(typeList[8:], 10)
	m = append(m, typeList...)
	m = append(m, refs...)
	be.PutUint16(m[24:], typeListOff)
	be.PutUint16(m[26:], uint16(len(m)))
	m = append(m, names...)

	fork := make([]byte, dataOff+len(data)+len(m))
	be.PutUint32(fork[0:], dataOff)
	be.PutUint32(fork[4:], uint32(dataOff+len(data)))
	be.PutUint32(fork[8:], uint32(len(data)))
	be.PutUint32(fork[12:], uint32(len(m)))
	copy(fork[dataOff:], data)
	copy(fork[dataOff+len(data):], m)
	return fork
}
