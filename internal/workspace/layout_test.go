package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	t.Run("accepts plain names", func(t *testing.T) {
		for _, name := range []string{"demo", "my playground", "v1.2", "util_fns"} {
			assert.NoError(t, ValidateName(name), name)
		}
	})

	t.Run("rejects empty names", func(t *testing.T) {
		assert.ErrorIs(t, ValidateName(""), ErrNameEmpty)
		assert.ErrorIs(t, ValidateName("   "), ErrNameEmpty)
	})

	t.Run("rejects names that are not a single path segment", func(t *testing.T) {
		for _, name := range []string{".", "..", ".hidden", ".DS_Store", "Thumbs.db", "a/b", `a\b`} {
			assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
		}
	})
}

func TestEntries(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		entries, err := Entries(filepath.Join(t.TempDir(), "nope"), true)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("filters hidden entries and by type", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "demo"), 0755))
		require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), nil, 0644))

		dirs, err := Entries(dir, true)
		require.NoError(t, err)
		require.Len(t, dirs, 1)
		assert.Equal(t, "demo", dirs[0].Name())

		files, err := Entries(dir, false)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "notes.txt", files[0].Name())
	})
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	require.NoError(t, WriteJSON(path, map[string]string{"label": "v1"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"label\": \"v1\"\n}", string(data))
}
