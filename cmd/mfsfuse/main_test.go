package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArgs(t *testing.T) {
	known := newRootCommand(new([]string)).Flags()

	cli, mount := splitArgs(known, []string{"--folders", "-o", "allow_other", "disk.image", "-ofsname=mfs", "-d", "/mnt", "-s", "-f"})
	assert.Equal(t, []string{"--folders", "disk.image", "/mnt"}, cli)
	assert.Equal(t, []string{"-o", "allow_other", "-ofsname=mfs", "-d", "-s", "-f"}, mount)

	cli, mount = splitArgs(known, []string{"-V"})
	assert.Equal(t, []string{"-V"}, cli)
	assert.Empty(t, mount)

	cli, mount = splitArgs(known, []string{"--config", "mfsfuse.yaml", "-x", "--allow-root", "--log-format=json", "disk.image", "-h", "/mnt"})
	assert.Equal(t, []string{"--config", "mfsfuse.yaml", "--log-format=json", "disk.image", "-h", "/mnt"}, cli)
	assert.Equal(t, []string{"-x", "--allow-root"}, mount)

	cli, mount = splitArgs(known, []string{"disk.image", "--", "-mnt"})
	assert.Equal(t, []string{"disk.image", "--", "-mnt"}, cli)
	assert.Empty(t, mount)
}

func TestUnknownOptionsReachTheMount(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.image")
	require.NoError(t, os.WriteFile(junk, make([]byte, 2048), 0644))
	cfg := filepath.Join(dir, "mfsfuse.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_format: json\n"), 0644))

	for _, opt := range []string{"-x", "--allow-root"} {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, run([]string{"--config", cfg, opt, junk, dir}, &stdout, &stderr), opt)
		assert.NotContains(t, stderr.String(), "unknown", opt)
		assert.Contains(t, stderr.String(), "invalid volume", opt)
	}
}

func TestVersionExitsOne(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"-V"}, &stdout, &stderr))
	assert.Equal(t, "mfsfuse "+version+"\n", stdout.String())
}

func TestHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "--folders")
}

func TestMissingDevice(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Equal(t, "invalid volume\n", stderr.String())

	stderr.Reset()
	assert.Equal(t, 1, run([]string{"-o", "allow_other"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid volume")
}

func TestMissingMountpoint(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"disk.image"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "missing mountpoint")
}

func TestUnrecognizedImage(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.image")
	require.NoError(t, os.WriteFile(junk, make([]byte, 2048), 0644))
	cfg := filepath.Join(dir, "mfsfuse.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("log_format: json\n"), 0644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run([]string{"--config", cfg, junk, dir}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid volume")
}
