package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/namedfork/mfsfuse-go/internal/cache"
	"github.com/namedfork/mfsfuse-go/internal/storage/types"
)

// CacheConfig sizes the page cache used for remote images
type CacheConfig struct {
	PageSize int64
	MaxPages int
}

// Image is a random-access view of a disk image held by a backend
type Image struct {
	name        string
	size        int64
	compression Compression
	r           io.ReaderAt
	closer      io.Closer
	pages       *cache.PageCache
}

// OpenImage opens the named image. Compressed images are inflated into
// memory. Backends with native random access are read directly; the rest
// go through a page cache.
func OpenImage(ctx context.Context, backend types.Backend, name string, cacheCfg CacheConfig, log *zap.Logger) (*Image, error) {
	if log == nil {
		log = zap.NewNop()
	}
	img := &Image{name: name}

	if opener, ok := backend.(types.ReaderAtOpener); ok {
		r, size, err := opener.OpenReaderAt(ctx, name)
		if err != nil {
			return nil, err
		}
		img.r, img.closer, img.size = r, r, size
	} else {
		size, err := backend.Size(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get image size: %w", err)
		}
		img.size = size
		img.pages = cache.NewPageCache(ctx, func(ctx context.Context, start, end int64) ([]byte, error) {
			return backend.ReadRange(ctx, name, start, end)
		}, size, cacheCfg.PageSize, cacheCfg.MaxPages)
		img.r = img.pages
	}

	head := make([]byte, MagicLength)
	n, err := img.r.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		img.Close()
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	img.compression = DetectCompression(head[:n])
	if img.compression == CompressionNone {
		log.Debug("opened image", zap.String("name", name), zap.Int64("size", img.size))
		return img, nil
	}

	if img.size > MaxInflatedSize {
		img.Close()
		return nil, fmt.Errorf("compressed %s image of %d bytes exceeds %d bytes", img.compression, img.size, MaxInflatedSize)
	}
	raw := make([]byte, img.size)
	n, err = img.r.ReadAt(raw, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		img.Close()
		return nil, fmt.Errorf("failed to read compressed image: %w", err)
	}
	data, err := Inflate(img.compression, raw[:n])
	img.Close()
	if err != nil {
		return nil, err
	}
	log.Debug("inflated image",
		zap.String("name", name),
		zap.Stringer("compression", img.compression),
		zap.Int64("compressed", img.size),
		zap.Int("size", len(data)))
	return &Image{
		name:        name,
		size:        int64(len(data)),
		compression: img.compression,
		r:           bytes.NewReader(data),
	}, nil
}

// Name returns the image name
func (img *Image) Name() string { return img.name }

// Size returns the (inflated) image length
func (img *Image) Size() int64 { return img.size }

// Compression returns the container format the image was stored in
func (img *Image) Compression() Compression { return img.compression }

// CacheStats returns page cache counters, or zero when no cache is used
func (img *Image) CacheStats() cache.PageCacheStats {
	if img.pages == nil {
		return cache.PageCacheStats{}
	}
	return img.pages.Stats()
}

// ReadAt implements io.ReaderAt
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.r.ReadAt(p, off)
}

// Close releases the image
func (img *Image) Close() error {
	if img.closer != nil {
		c := img.closer
		img.closer = nil
		return c.Close()
	}
	return nil
}
