package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compression identifies the container format of an image
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionXz
	CompressionBzip2
	CompressionLz4
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionXz:
		return "xz"
	case CompressionBzip2:
		return "bzip2"
	case CompressionLz4:
		return "lz4"
	default:
		return "none"
	}
}

// MagicLength is the number of leading bytes DetectCompression looks at
const MagicLength = 6

// MaxInflatedSize bounds decompressed images
const MaxInflatedSize = 64 << 20

var magics = []struct {
	kind  Compression
	magic []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CompressionXz, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{CompressionBzip2, []byte("BZh")},
	{CompressionLz4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// DetectCompression identifies a compressed image by its leading bytes
func DetectCompression(head []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.kind
		}
	}
	return CompressionNone
}

// Inflate decompresses a whole image
func Inflate(kind Compression, data []byte) ([]byte, error) {
	src := bytes.NewReader(data)
	var r io.Reader
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionXz:
		zr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		r = zr
	case CompressionBzip2:
		zr, err := bzip2.NewReader(src, nil)
		if err != nil {
			return nil, fmt.Errorf("bzip2: %w", err)
		}
		defer zr.Close()
		r = zr
	case CompressionLz4:
		r = lz4.NewReader(src)
	default:
		return nil, fmt.Errorf("unknown compression %d", kind)
	}

	out, err := io.ReadAll(io.LimitReader(r, MaxInflatedSize+1))
	if err != nil {
		return nil, fmt.Errorf("inflating %s image: %w", kind, err)
	}
	if len(out) > MaxInflatedSize {
		return nil, fmt.Errorf("inflated %s image exceeds %d bytes", kind, MaxInflatedSize)
	}
	return out, nil
}
