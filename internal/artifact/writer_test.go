package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labeled", "test_boxed.png")

	fw := NewFileWriter(path)
	require.NoError(t, fw.Write([]byte("png-bytes")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, path, fw.Path())
}

func TestFileWriter_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_boxed.png")

	fw := NewFileWriter(path)
	require.NoError(t, fw.Write([]byte("first")))
	require.NoError(t, fw.Write([]byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFileWriter_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_boxed.png")

	fw := NewFileWriter(path)
	require.NoError(t, fw.Write([]byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test_boxed.png", entries[0].Name())
}

func TestFileWriter_WithPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test_boxed.png")

	fw := NewFileWriter(path, WithPermissions(0o600))
	require.NoError(t, fw.Write([]byte("data")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileWriter_DirectoryCreationFailure(t *testing.T) {
	// A regular file where the parent directory should be forces MkdirAll
	// to fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o644))

	fw := NewFileWriter(filepath.Join(blocker, "test_boxed.png"))
	err := fw.Write([]byte("data"))
	require.Error(t, err)

	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}
