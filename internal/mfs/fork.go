package mfs

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
)

// ForkKind selects which byte stream of a record to open
type ForkKind int

const (
	ForkData ForkKind = iota
	ForkResource
	// ForkAppleDouble is an AppleDouble header followed by the resource fork
	ForkAppleDouble
)

func (k ForkKind) String() string {
	switch k {
	case ForkData:
		return "data"
	case ForkResource:
		return "resource"
	case ForkAppleDouble:
		return "appledouble"
	default:
		return fmt.Sprintf("fork(%d)", int(k))
	}
}

// AppleDouble layout: 26 byte header, two 12 byte entry descriptors, 32 bytes of Finder info
const (
	AppleDoubleMagic        = 0x00051607
	AppleDoubleVersion      = 0x00020000
	AppleDoubleHeaderLength = 26 + 2*12 + 32

	appleDoubleEntryResource   = 2
	appleDoubleEntryFinderInfo = 9
	appleDoubleFinderInfoSize  = 32
)

// Fork is an open byte stream of a record
type Fork struct {
	vol    *Volume
	kind   ForkKind
	blocks []uint16
	raw    int64  // logical length of the underlying data or resource fork
	header []byte // AppleDouble header, nil for plain forks
	closed atomic.Bool
}

// OpenFork opens the requested fork of rec
func (v *Volume) OpenFork(rec *Record, kind ForkKind) (*Fork, error) {
	if v.closed.Load() {
		return nil, ErrClosed
	}
	if rec == nil {
		return nil, fmt.Errorf("open fork: nil record")
	}
	f := &Fork{vol: v, kind: kind}
	start, length := rec.DataStart, rec.DataLength
	switch kind {
	case ForkData:
	case ForkResource, ForkAppleDouble:
		start, length = rec.RsrcStart, rec.RsrcLength
	default:
		return nil, fmt.Errorf("open fork: unknown kind %d", int(kind))
	}
	blocks, err := v.bmap.chain(start, int64(length), v.mdb.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("open %s fork of file %d: %w", kind, rec.FileNum, err)
	}
	f.blocks = blocks
	f.raw = int64(length)
	if kind == ForkAppleDouble {
		f.header = AppleDoubleHeader(rec)
	}
	return f, nil
}

// AppleDoubleHeader builds the header that precedes the resource fork in an
// AppleDouble companion file.
func AppleDoubleHeader(rec *Record) []byte {
	be := binary.BigEndian
	h := make([]byte, AppleDoubleHeaderLength)
	be.PutUint32(h[0:], AppleDoubleMagic)
	be.PutUint32(h[4:], AppleDoubleVersion)
	be.PutUint16(h[24:], 2)

	be.PutUint32(h[26:], appleDoubleEntryFinderInfo)
	be.PutUint32(h[30:], 50)
	be.PutUint32(h[34:], appleDoubleFinderInfoSize)

	be.PutUint32(h[38:], appleDoubleEntryResource)
	be.PutUint32(h[42:], AppleDoubleHeaderLength)
	be.PutUint32(h[46:], rec.RsrcLength)

	copy(h[50:], rec.FinderInfo[:])
	return h
}

// Kind returns the fork kind
func (f *Fork) Kind() ForkKind { return f.kind }

// Len returns the number of bytes readable from the fork
func (f *Fork) Len() int64 {
	return int64(len(f.header)) + f.raw
}

// ReadAt implements io.ReaderAt over the logical fork contents
func (f *Fork) ReadAt(p []byte, off int64) (int, error) {
	if f.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("read fork: negative offset %d", off)
	}
	if off >= f.Len() {
		return 0, io.EOF
	}
	n := 0
	hl := int64(len(f.header))
	if off < hl {
		n = copy(p, f.header[off:])
	}
	if n == len(p) {
		return n, nil
	}
	m, err := f.readRaw(p[n:], off+int64(n)-hl)
	return n + m, err
}

func (f *Fork) readRaw(p []byte, off int64) (int, error) {
	if off >= f.raw {
		return 0, io.EOF
	}
	var eof error
	if rem := f.raw - off; int64(len(p)) > rem {
		p = p[:rem]
		eof = io.EOF
	}
	bs := int64(f.vol.mdb.BlockSize)
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		idx := pos / bs
		if idx >= int64(len(f.blocks)) {
			return n, fmt.Errorf("read past allocation chain: %w", ErrCorrupt)
		}
		inBlock := pos % bs
		chunk := int(bs - inBlock)
		if chunk > len(p)-n {
			chunk = len(p) - n
		}
		m, err := f.vol.r.ReadAt(p[n:n+chunk], f.vol.blockOffset(f.blocks[idx])+inBlock)
		n += m
		if err != nil && !(err == io.EOF && m == chunk) {
			return n, fmt.Errorf("read allocation block %d: %w", f.blocks[idx], err)
		}
	}
	return n, eof
}

// Close releases the fork. Closing twice returns ErrClosed.
func (f *Fork) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}
