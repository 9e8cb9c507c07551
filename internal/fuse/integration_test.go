package fuse

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namedfork/mfsfuse-go/internal/mfs"
	"github.com/namedfork/mfsfuse-go/internal/mfs/mfstest"
)

// desktopImage is a folder-mode volume: Documents and Games sit at the top
// level (Games on the desktop), Old inside Documents.
func desktopImage() mfstest.Image {
	return mfstest.Image{
		Name:       "Finder Disk",
		CreateDate: testModDate - 3600,
		FreeBlocks: 20,
		Files: []mfstest.File{
			{Name: "ReadMe", Type: "TEXT", Creator: "MACA", Data: []byte("Welcome to the disk"), Rsrc: []byte("styl"), ModDate: testModDate},
			{Name: "Finder", Folder: mfs.FolderDesktop, Type: "FNDR", Creator: "MACS", Rsrc: bytes.Repeat([]byte{0x42}, 1500)},
			{Name: "Letter", Folder: 7, Data: []byte("Dear reader")},
			{Name: "Caf\x8e", Folder: 9, Data: []byte("menu")},
			{Name: "Orphan", Folder: 99, Data: []byte("lost")},
		},
		Folders: []mfstest.Folder{
			{ID: 7, Parent: mfs.FolderRoot, Name: "Documents", ModDate: testModDate},
			{ID: 9, Parent: 7, Name: "Old"},
			{ID: 11, Parent: mfs.FolderDesktop, Name: "Games/Toys"},
		},
	}
}

func openImage(t *testing.T, img mfstest.Image, folders bool) *Filesystem {
	t.Helper()
	var flags mfs.Flags
	if folders {
		flags = mfs.FlagFolders
	}
	vol, err := mfs.Open(bytes.NewReader(mfstest.Build(img)), flags)
	require.NoError(t, err)
	return NewFilesystem(NewVolume(vol), Options{Folders: folders})
}

func TestFolderModeRootListing(t *testing.T) {
	fs := openImage(t, desktopImage(), true)
	entries, err := fs.ReadDir(context.Background(), "/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		".", "..",
		"ReadMe", "._ReadMe",
		"Finder", "._Finder",
		"Orphan", "._Orphan",
		"Desktop", "._Desktop",
		"Documents", "Games:Toys",
	}, names(entries))
	assert.True(t, entries[len(entries)-1].IsDir)
	assert.True(t, entries[len(entries)-2].IsDir)
}

func TestFolderModeFolderListing(t *testing.T) {
	fs := openImage(t, desktopImage(), true)
	ctx := context.Background()

	entries, err := fs.ReadDir(ctx, "/Documents")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "Letter", "._Letter", "Old"}, names(entries))

	entries, err = fs.ReadDir(ctx, "/Documents/Old")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "Café", "._Café"}, names(entries))

	entries, err = fs.ReadDir(ctx, "/Games:Toys")
	require.NoError(t, err)
	assert.Equal(t, []string{".", ".."}, names(entries))

	_, err = fs.ReadDir(ctx, "/Nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFolderModeAttributes(t *testing.T) {
	fs := openImage(t, desktopImage(), true)
	ctx := context.Background()

	root, err := fs.GetAttr(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, uint32(2+2), root.Nlink)

	docs, err := fs.GetAttr(ctx, "/Documents")
	require.NoError(t, err)
	assert.True(t, docs.Mode.IsDir())
	assert.Equal(t, uint32(3), docs.Nlink)
	assert.Equal(t, mfs.Time(testModDate), docs.Mtime)
	assert.Zero(t, docs.Size)

	cafe, err := fs.GetAttr(ctx, "/Documents/Old/Café")
	require.NoError(t, err)
	assert.Equal(t, int64(4), cafe.Size)

	_, err = fs.GetAttr(ctx, "/Letter")
	assert.ErrorIs(t, err, ErrNotFound, "Letter lives in Documents")
	_, err = fs.GetAttr(ctx, "/Old")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlatModeIgnoresFolderCatalog(t *testing.T) {
	fs := openImage(t, desktopImage(), false)
	entries, err := fs.ReadDir(context.Background(), "/")
	require.NoError(t, err)
	for _, e := range entries[2:] {
		assert.False(t, e.IsDir, e.Name)
	}
	assert.Len(t, entries, 2+2*6)

	assert.Equal(t, TargetRecord, fs.Resolve("/Letter").Kind)
	assert.Equal(t, TargetNone, fs.Resolve("/Documents").Kind)
}

func TestReadThroughVolume(t *testing.T) {
	fs := openImage(t, desktopImage(), true)
	ctx := context.Background()

	s, err := fs.Open(ctx, "/Documents/Letter")
	require.NoError(t, err)
	data, err := fs.Read(ctx, s, 4096, 0)
	require.NoError(t, err)
	assert.Equal(t, "Dear reader", string(data))
	require.NoError(t, fs.Release(ctx, s))

	s, err = fs.Open(ctx, "/._Finder")
	require.NoError(t, err)
	attr, err := fs.GetAttr(ctx, "/._Finder")
	require.NoError(t, err)
	data, err = fs.Read(ctx, s, int(attr.Size)+100, 0)
	require.NoError(t, err)
	require.Len(t, data, mfs.AppleDoubleHeaderLength+1500)
	assert.Equal(t, []byte{0x00, 0x05, 0x16, 0x07}, data[:4])
	assert.Equal(t, []byte("FNDRMACS"), data[50:58])
	assert.Equal(t, bytes.Repeat([]byte{0x42}, 1500), data[mfs.AppleDoubleHeaderLength:])
	require.NoError(t, fs.Release(ctx, s))
}

func TestNameRoundTripOnVolume(t *testing.T) {
	fs := openImage(t, desktopImage(), true)
	for _, rec := range fs.vol.Records() {
		p, err := ToPresentation(rec.Name)
		require.NoError(t, err)
		n, err := ToNative(p)
		require.NoError(t, err)
		assert.Equal(t, rec.Name, n)
	}
	for _, f := range fs.vol.Folders() {
		p, err := ToPresentation(f.Name)
		require.NoError(t, err)
		n, err := ToNative(p)
		require.NoError(t, err)
		assert.Equal(t, f.Name, n)
	}
}

// twinFolderImage has two folders named Sub under different parents. B's Sub
// is newer and holds a subfolder of its own.
func twinFolderImage() mfstest.Image {
	return mfstest.Image{
		Name:       "Twin Disk",
		CreateDate: testModDate - 3600,
		Files: []mfstest.File{
			{Name: "InA", Folder: 9, Data: []byte("a")},
			{Name: "InB", Folder: 10, Data: []byte("bb")},
		},
		Folders: []mfstest.Folder{
			{ID: 7, Parent: mfs.FolderRoot, Name: "A"},
			{ID: 8, Parent: mfs.FolderRoot, Name: "B"},
			{ID: 9, Parent: 7, Name: "Sub", ModDate: testModDate},
			{ID: 10, Parent: 8, Name: "Sub", ModDate: testModDate + 5000},
			{ID: 12, Parent: 10, Name: "Deep"},
		},
	}
}

func TestFolderAttributesFollowParentPath(t *testing.T) {
	fs := openImage(t, twinFolderImage(), true)
	ctx := context.Background()

	target := fs.Resolve("/B/Sub")
	require.Equal(t, TargetFolder, target.Kind)
	assert.Equal(t, int16(10), target.Folder.ID)
	assert.Equal(t, int16(9), fs.Resolve("/A/Sub").Folder.ID)

	b, err := fs.GetAttr(ctx, "/B/Sub")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), b.Nlink)
	assert.Equal(t, mfs.Time(testModDate+5000), b.Mtime)

	a, err := fs.GetAttr(ctx, "/A/Sub")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), a.Nlink)
	assert.Equal(t, mfs.Time(testModDate), a.Mtime)

	_, err = fs.GetAttr(ctx, "/B/Sub/Deep")
	assert.NoError(t, err)
	_, err = fs.GetAttr(ctx, "/A/Sub/Deep")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.GetAttr(ctx, "/B/Sub/InB")
	assert.NoError(t, err)
	_, err = fs.GetAttr(ctx, "/B/Sub/InA")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fs.GetAttr(ctx, "/Sub")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Directory listing resolves a folder by its final component alone and does
// not check the ancestor chain. Whether /B/Sub should list B's Sub is an open
// property; this pins the current behaviour: both paths list the first folder
// named Sub in the catalog.
func TestFolderListingIgnoresAncestorChain(t *testing.T) {
	fs := openImage(t, twinFolderImage(), true)
	ctx := context.Background()

	a, err := fs.ReadDir(ctx, "/A/Sub")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "InA", "._InA"}, names(a))

	b, err := fs.ReadDir(ctx, "/B/Sub")
	require.NoError(t, err)
	assert.Equal(t, names(a), names(b))

	unrelated, err := fs.ReadDir(ctx, "/InB/Sub")
	require.NoError(t, err)
	assert.Equal(t, names(a), names(unrelated))
}
