package fuse

import (
	"bytes"
	"encoding/binary"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
)

const testModDate = 2082844800 + 1000000000 // 2001-09-09 01:46:40 UTC

func newRecord(num uint32, name string, folder int16, dataLen, rsrcLen uint32) *mfs.Record {
	rec := &mfs.Record{
		Flags:      0x80,
		FileNum:    num,
		DataLength: dataLen,
		RsrcLength: rsrcLen,
		CreateDate: testModDate,
		ModDate:    testModDate,
		Name:       name,
	}
	copy(rec.FinderInfo[0:8], "TEXTttxt")
	binary.BigEndian.PutUint16(rec.FinderInfo[14:], uint16(folder))
	return rec
}

// forkContent is the byte stream the mock serves for a fork. The
// AppleDouble header region is filled with 'H' so tests can tell it apart.
func forkContent(rec *mfs.Record, kind mfs.ForkKind) []byte {
	switch kind {
	case mfs.ForkData:
		return pattern(int(rec.DataLength), byte(rec.FileNum))
	case mfs.ForkResource:
		return pattern(int(rec.RsrcLength), byte(rec.FileNum)+100)
	}
	header := bytes.Repeat([]byte{'H'}, mfs.AppleDoubleHeaderLength)
	return append(header, pattern(int(rec.RsrcLength), byte(rec.FileNum)+100)...)
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

type mockFork struct {
	*bytes.Reader
	closeErr error
	closed   atomic.Int32
}

func (f *mockFork) Close() error {
	f.closed.Add(1)
	return f.closeErr
}

type forkRequest struct {
	name string
	kind mfs.ForkKind
}

// mockVolume serves records and folders from memory and records every fork
// request it receives.
type mockVolume struct {
	name    string
	mdb     mfs.MDB
	records []*mfs.Record
	folders []*mfs.Folder
	paths   map[string]mfs.PathType
	// folderPaths pins a native folder path to a folder id; other folder
	// paths resolve by their final component
	folderPaths map[string]int16

	openErr  error
	closeErr error

	mu     sync.Mutex
	opened []forkRequest
	forks  []*mockFork
	closed bool
}

func newMockVolume(records ...*mfs.Record) *mockVolume {
	return &mockVolume{
		name: "Mock Disk",
		mdb: mfs.MDB{
			Signature:  mfs.Signature,
			CreateDate: testModDate - 86400,
			FileCount:  uint16(len(records)),
			BlockCount: 391,
			BlockSize:  1024,
			FreeBlocks: 12,
			Name:       "Mock Disk",
		},
		records: records,
		paths:   map[string]mfs.PathType{},
	}
}

func (m *mockVolume) Name() string           { return m.name }
func (m *mockVolume) MDB() mfs.MDB           { return m.mdb }
func (m *mockVolume) Records() []*mfs.Record { return m.records }
func (m *mockVolume) Folders() []*mfs.Folder { return m.folders }

func (m *mockVolume) FindRecord(name string) (*mfs.Record, bool) {
	for _, rec := range m.records {
		if rec.Name == name {
			return rec, true
		}
	}
	return nil, false
}

func (m *mockVolume) FindFolder(id int16) (*mfs.Folder, bool) {
	for _, f := range m.folders {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

func (m *mockVolume) FindFolderName(name string) (*mfs.Folder, bool) {
	for _, f := range m.folders {
		if !f.Reserved() && f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (m *mockVolume) PathInfo(path string) mfs.PathType {
	return m.paths[path]
}

func (m *mockVolume) ResolveFolder(path string) (*mfs.Folder, bool) {
	if id, ok := m.folderPaths[path]; ok {
		return m.FindFolder(id)
	}
	if m.paths[path] != mfs.PathFolder {
		return nil, false
	}
	parts := strings.Split(path, mfs.PathSeparator)
	return m.FindFolderName(parts[len(parts)-1])
}

func (m *mockVolume) RecordFolder(rec *mfs.Record) int16 {
	if _, ok := m.FindFolder(rec.Folder()); ok {
		return rec.Folder()
	}
	return mfs.FolderRoot
}

func (m *mockVolume) OpenFork(rec *mfs.Record, kind mfs.ForkKind) (Fork, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, forkRequest{name: rec.Name, kind: kind})
	if m.openErr != nil {
		return nil, m.openErr
	}
	f := &mockFork{Reader: bytes.NewReader(forkContent(rec, kind)), closeErr: m.closeErr}
	m.forks = append(m.forks, f)
	return f, nil
}

func (m *mockVolume) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockVolume) requests() []forkRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]forkRequest(nil), m.opened...)
}
