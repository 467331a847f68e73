package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

type recordingEditors struct {
	closed []string
}

func (r *recordingEditors) CloseIfOpen(_ context.Context, path string) error {
	r.closed = append(r.closed, path)
	return nil
}

func newPlayground(t *testing.T) *models.Playground {
	dir := filepath.Join(t.TempDir(), "demo")
	scriptsDir := filepath.Join(dir, workspace.ScriptsDir)
	require.NoError(t, os.MkdirAll(scriptsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "default"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "util"), []byte("{ util: true }"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "util.test"), []byte(`{"util":true}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.ExtVarsFile), []byte(`[{"name":"a","type":"string","value":"x","open":false}]`), 0644))
	return &models.Playground{Name: "demo", Location: dir}
}

// fixedClock starts the clock of m at ms and advances it by step on every call
func fixedClock(m *Manager, ms int64, step time.Duration) {
	now := time.UnixMilli(ms)
	m.now = func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestDefaultLabel(t *testing.T) {
	id := int64(1700000000000)
	want := time.UnixMilli(id).Local().Format("Mon Jan 02 2006 3:04:05 PM")

	assert.Equal(t, want, DefaultLabel(strconv.FormatInt(id, 10)))
	assert.Equal(t, "not-a-number", DefaultLabel("not-a-number"))
}

func TestLabelOf(t *testing.T) {
	id := "1700000000000"

	t.Run("reads meta.json", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, workspace.WriteJSON(filepath.Join(dir, workspace.MetaFile), Meta{Label: "v1"}))
		assert.Equal(t, "v1", LabelOf(dir, id))
	})

	t.Run("falls back when missing, malformed or blank", func(t *testing.T) {
		assert.Equal(t, DefaultLabel(id), LabelOf(t.TempDir(), id))

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.MetaFile), []byte("{not json"), 0644))
		assert.Equal(t, DefaultLabel(id), LabelOf(dir, id))

		dir = t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, workspace.MetaFile), []byte(`{"label":""}`), 0644))
		assert.Equal(t, DefaultLabel(id), LabelOf(dir, id))
	})
}

func TestManager_Take(t *testing.T) {
	ctx := context.Background()

	t.Run("copies scripts, test cases and variables", func(t *testing.T) {
		m := NewManager(nil)
		fixedClock(m, 1700000000000, time.Millisecond)
		p := newPlayground(t)

		snap, err := m.Take(ctx, p, "v1")
		require.NoError(t, err)
		assert.Equal(t, "1700000000000", snap.ID)
		assert.Equal(t, "v1", snap.Label)
		assert.Equal(t, "demo", snap.Playground)

		for _, f := range []string{"default", "util", "util.test"} {
			want, err := os.ReadFile(filepath.Join(p.Location, workspace.ScriptsDir, f))
			require.NoError(t, err)
			got, err := os.ReadFile(filepath.Join(snap.Location, workspace.ScriptsDir, f))
			require.NoError(t, err)
			assert.Equal(t, want, got, f)
		}

		want, err := os.ReadFile(filepath.Join(p.Location, workspace.ExtVarsFile))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(snap.Location, workspace.ExtVarsFile))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		assert.Equal(t, "v1", LabelOf(snap.Location, snap.ID))
	})

	t.Run("empty label uses the timestamp label", func(t *testing.T) {
		m := NewManager(nil)
		p := newPlayground(t)

		snap, err := m.Take(ctx, p, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultLabel(snap.ID), snap.Label)
	})

	t.Run("same millisecond moves to the next free id", func(t *testing.T) {
		m := NewManager(nil)
		fixedClock(m, 1700000000000, 0)
		p := newPlayground(t)

		first, err := m.Take(ctx, p, "a")
		require.NoError(t, err)
		second, err := m.Take(ctx, p, "b")
		require.NoError(t, err)

		assert.Equal(t, "1700000000000", first.ID)
		assert.Equal(t, "1700000000001", second.ID)
	})

	t.Run("missing variables file becomes an empty list", func(t *testing.T) {
		m := NewManager(nil)
		p := newPlayground(t)
		require.NoError(t, os.Remove(filepath.Join(p.Location, workspace.ExtVarsFile)))

		snap, err := m.Take(ctx, p, "")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(snap.Location, workspace.ExtVarsFile))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("failed copy keeps the partial snapshot", func(t *testing.T) {
		m := NewManager(nil)
		p := newPlayground(t)
		require.NoError(t, os.RemoveAll(filepath.Join(p.Location, workspace.ScriptsDir)))

		snap, err := m.Take(ctx, p, "partial")
		assert.ErrorIs(t, err, workspace.ErrSnapshotIncomplete)
		require.NotNil(t, snap)
		assert.DirExists(t, snap.Location)
		assert.Equal(t, "partial", LabelOf(snap.Location, snap.ID))
	})
}

func TestManager_List(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	p := newPlayground(t)

	for _, id := range []string{"1700000000500", "999", "1700000000010", "1000", "1700000009000", "broken"} {
		require.NoError(t, os.MkdirAll(filepath.Join(p.Location, workspace.SnapshotsDir, id), 0755))
	}

	snaps, err := m.List(ctx, p)
	require.NoError(t, err)

	ids := make([]string, len(snaps))
	for i, s := range snaps {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"1700000009000", "1700000000500", "1700000000010", "1000", "999", "broken"}, ids)
	assert.Equal(t, DefaultLabel("1700000009000"), snaps[0].Label)

	t.Run("no snapshots directory", func(t *testing.T) {
		snaps, err := m.List(ctx, newPlayground(t))
		require.NoError(t, err)
		assert.Empty(t, snaps)
	})
}

func TestManager_Rename(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil)
	p := newPlayground(t)

	snap, err := m.Take(ctx, p, "v1")
	require.NoError(t, err)

	require.NoError(t, m.Rename(ctx, snap, "release"))
	assert.Equal(t, "release", snap.Label)
	assert.Equal(t, "release", LabelOf(snap.Location, snap.ID))

	require.NoError(t, m.Rename(ctx, snap, ""))
	assert.Equal(t, DefaultLabel(snap.ID), LabelOf(snap.Location, snap.ID))

	missing := &models.Snapshot{ID: "1", Location: filepath.Join(p.Location, workspace.SnapshotsDir, "1")}
	assert.ErrorIs(t, m.Rename(ctx, missing, "x"), workspace.ErrNotFound)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	editors := &recordingEditors{}
	m := NewManager(editors)
	p := newPlayground(t)

	snap, err := m.Take(ctx, p, "v1")
	require.NoError(t, err)

	parent, err := m.Delete(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, "demo", parent)
	assert.NoDirExists(t, snap.Location)

	assert.ElementsMatch(t, []string{
		filepath.Join(snap.Location, workspace.ScriptsDir, "default"),
		filepath.Join(snap.Location, workspace.ScriptsDir, "util"),
		filepath.Join(snap.Location, workspace.ScriptsDir, "util.test"),
	}, editors.closed)

	t.Run("parent playground is untouched", func(t *testing.T) {
		assert.FileExists(t, filepath.Join(p.Location, workspace.ScriptsDir, "util"))
		assert.FileExists(t, filepath.Join(p.Location, workspace.ScriptsDir, "util.test"))
		assert.FileExists(t, filepath.Join(p.Location, workspace.ExtVarsFile))
	})

	t.Run("deleting twice is not found", func(t *testing.T) {
		_, err := m.Delete(ctx, snap)
		assert.ErrorIs(t, err, workspace.ErrNotFound)
	})
}
