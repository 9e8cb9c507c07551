package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namedfork/mfsfuse-go/internal/config"
	"github.com/namedfork/mfsfuse-go/internal/mfs"
	"github.com/namedfork/mfsfuse-go/internal/mfs/mfstest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mfsfuse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: file\n"), 0644))
	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	return cfg
}

func TestOpenFileSource(t *testing.T) {
	image := filepath.Join(t.TempDir(), "sample.image")
	require.NoError(t, os.WriteFile(image, mfstest.Build(mfstest.Image{
		Name:    "Sample",
		Files:   []mfstest.File{{Name: "ReadMe", Type: "TEXT", Creator: "ttxt", Data: []byte("hello")}},
		Folders: []mfstest.Folder{{ID: 7, Parent: 0, Name: "Documents"}},
	}), 0644))

	src, err := Open(context.Background(), testConfig(t), image, nil)
	require.NoError(t, err)
	defer src.Close()

	vol, err := src.Volume(mfs.FlagFolders)
	require.NoError(t, err)
	assert.Equal(t, "Sample", vol.Name())
	_, ok := vol.FindFolderName("Documents")
	assert.True(t, ok)
}

func TestOpenRejectsNonVolume(t *testing.T) {
	image := filepath.Join(t.TempDir(), "junk.image")
	require.NoError(t, os.WriteFile(image, make([]byte, 4096), 0644))

	src, err := Open(context.Background(), testConfig(t), image, nil)
	require.NoError(t, err)
	defer src.Close()
	_, err = src.Volume(0)
	assert.ErrorIs(t, err, mfs.ErrBadSignature)
}

func TestOpenMissingImage(t *testing.T) {
	_, err := Open(context.Background(), testConfig(t), filepath.Join(t.TempDir(), "none"), nil)
	assert.Error(t, err)
}
