package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestDiscoverImagesShallow(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.png"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "nested.png"))

	images, err := DiscoverImages(dir, false)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), images[0])
	assert.Equal(t, filepath.Join(dir, "b.png"), images[1])
}

func TestDiscoverImagesRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "top.png"))
	touch(t, filepath.Join(dir, "sub", "nested.jpeg"))
	touch(t, filepath.Join(dir, "sub", "deeper", "deep.webp"))
	touch(t, filepath.Join(dir, "sub", "skip.md"))

	images, err := DiscoverImages(dir, true)
	require.NoError(t, err)
	assert.Len(t, images, 3)
}

func TestDiscoverImagesDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.png", "b.png"} {
		touch(t, filepath.Join(dir, name))
	}

	first, err := DiscoverImages(dir, false)
	require.NoError(t, err)
	second, err := DiscoverImages(dir, false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(dir, "a.png"), first[0])
}

func TestDiscoverImagesEmptyFolder(t *testing.T) {
	images, err := DiscoverImages(t.TempDir(), false)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestDiscoverImagesMissingFolder(t *testing.T) {
	_, err := DiscoverImages(filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}
