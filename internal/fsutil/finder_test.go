package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.hcl", "a/z.yaml", "a/m.hcl", "notes.txt")

	files, err := FindFiles(root, ".hcl", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a/m.hcl"),
		filepath.Join(root, "a/z.yaml"),
		filepath.Join(root, "b.hcl"),
	}, files)
}

func TestFindFiles_SingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "notes.txt")

	files, err := FindFiles(filepath.Join(root, "notes.txt"), ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "notes.txt")}, files)
}

func TestFindFiles_Missing(t *testing.T) {
	_, err := FindFiles(filepath.Join(t.TempDir(), "nope"), ".hcl")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindAll_Dedup(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.hcl", "b.hcl")

	files, err := FindAll([]string{filepath.Join(root, "b.hcl"), root}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "b.hcl"), filepath.Join(root, "a.hcl")}, files)
}

func TestFindFiles_NoExtensionPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = FindFiles(t.TempDir()) })
}
