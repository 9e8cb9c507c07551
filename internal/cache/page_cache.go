package cache

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc reads the bytes [start, end) of the underlying image
type FetchFunc func(ctx context.Context, start, end int64) ([]byte, error)

// Page represents a cached page of image data
type Page struct {
	Offset     int64
	Data       []byte
	LastAccess time.Time
}

// PageCacheStats counts cache traffic
type PageCacheStats struct {
	Hits    int64
	Misses  int64
	Fetches int64
}

// PageCache serves ReadAt over a remote image in fixed-size pages. At most
// maxPages pages stay resident; the least recently used one is evicted.
// Concurrent misses on the same page share a single fetch.
type PageCache struct {
	ctx      context.Context
	fetch    FetchFunc
	size     int64
	pageSize int64
	maxPages int

	mu    sync.Mutex
	pages map[int64]*Page
	group singleflight.Group

	hits, misses, fetches atomic.Int64
}

// Default page cache geometry
const (
	DefaultPageSize = 64 * 1024
	DefaultMaxPages = 256
)

// NewPageCache creates a page cache over an image of the given size
func NewPageCache(ctx context.Context, fetch FetchFunc, size, pageSize int64, maxPages int) *PageCache {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &PageCache{
		ctx:      ctx,
		fetch:    fetch,
		size:     size,
		pageSize: pageSize,
		maxPages: maxPages,
		pages:    make(map[int64]*Page),
	}
}

// Size returns the image size
func (pc *PageCache) Size() int64 { return pc.size }

// ReadAt implements io.ReaderAt
func (pc *PageCache) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("page cache: negative offset %d", off)
	}
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= pc.size {
			return n, io.EOF
		}
		pageOffset := (pos / pc.pageSize) * pc.pageSize
		data, err := pc.page(pageOffset)
		if err != nil {
			return n, err
		}
		inPage := pos - pageOffset
		if inPage >= int64(len(data)) {
			return n, io.EOF
		}
		n += copy(p[n:], data[inPage:])
	}
	return n, nil
}

func (pc *PageCache) page(pageOffset int64) ([]byte, error) {
	pc.mu.Lock()
	if pg, ok := pc.pages[pageOffset]; ok {
		pg.LastAccess = time.Now()
		pc.mu.Unlock()
		pc.hits.Add(1)
		return pg.Data, nil
	}
	pc.mu.Unlock()
	pc.misses.Add(1)

	v, err, _ := pc.group.Do(fmt.Sprint(pageOffset), func() (interface{}, error) {
		end := pageOffset + pc.pageSize
		if end > pc.size {
			end = pc.size
		}
		pc.fetches.Add(1)
		data, err := pc.fetch(pc.ctx, pageOffset, end)
		if err != nil {
			return nil, fmt.Errorf("fetching bytes %d-%d: %w", pageOffset, end, err)
		}
		pc.store(&Page{Offset: pageOffset, Data: data, LastAccess: time.Now()})
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (pc *PageCache) store(pg *Page) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for len(pc.pages) >= pc.maxPages {
		pc.evictOldestPage()
	}
	pc.pages[pg.Offset] = pg
}

// evictOldestPage removes the least recently used page. Callers hold mu.
func (pc *PageCache) evictOldestPage() {
	var oldest *Page
	for _, pg := range pc.pages {
		if oldest == nil || pg.LastAccess.Before(oldest.LastAccess) {
			oldest = pg
		}
	}
	if oldest != nil {
		delete(pc.pages, oldest.Offset)
	}
}

// Resident returns the number of cached pages
func (pc *PageCache) Resident() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return len(pc.pages)
}

// Stats returns a snapshot of the cache counters
func (pc *PageCache) Stats() PageCacheStats {
	return PageCacheStats{
		Hits:    pc.hits.Load(),
		Misses:  pc.misses.Load(),
		Fetches: pc.fetches.Load(),
	}
}
