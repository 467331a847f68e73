package tree

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andythehood/datatransformer-playground/internal/events"
	"github.com/andythehood/datatransformer-playground/internal/playground"
	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

func setup(t *testing.T) (*Index, *playground.Store, <-chan events.Event) {
	hub := events.NewHub(64)
	store := playground.NewStore(t.TempDir(), nil, nil)
	idx := NewIndex(store, hub)
	_, ch := hub.Subscribe()
	return idx, store, ch
}

// next returns the next event of type typ, skipping others
func next(t *testing.T, ch <-chan events.Event, typ events.Type) events.Event {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event received", typ)
			return events.Event{}
		}
	}
}

func TestIndex_Refresh(t *testing.T) {
	ctx := context.Background()
	idx, store, ch := setup(t)

	require.NoError(t, idx.Refresh(ctx))
	assert.Empty(t, idx.Playgrounds())
	next(t, ch, events.TreeChanged)

	_, err := store.Create(ctx, "demo")
	require.NoError(t, err)

	next(t, ch, events.TreeChanged)
	require.Len(t, idx.Playgrounds(), 1)
	assert.Equal(t, "demo", idx.Playgrounds()[0].Name)
}

func TestIndex_RefreshAfterWriteSkipsRunningScan(t *testing.T) {
	ctx := context.Background()
	idx, store, _ := setup(t)
	require.NoError(t, idx.Refresh(ctx))

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		idx.group.Do("refresh", func() (interface{}, error) {
			gen := idx.begin()
			stale, err := store.List(ctx)
			close(started)
			<-release
			idx.apply(gen, stale)
			return nil, err
		})
	}()
	<-started

	_, err := store.Create(ctx, "demo")
	require.NoError(t, err)

	require.Len(t, idx.Playgrounds(), 1)
	_, _, script, err := idx.ResolvePath(ctx, "demo/scripts/default")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultScript, script.Name)

	close(release)
	<-done

	require.Len(t, idx.Playgrounds(), 1, "an older scan must not replace a newer one")
	assert.Equal(t, "demo", idx.Playgrounds()[0].Name)

	require.NoError(t, idx.Sync(ctx))
	assert.Len(t, idx.Playgrounds(), 1)
}

func TestIndex_ResolvePath(t *testing.T) {
	ctx := context.Background()
	idx, store, _ := setup(t)

	_, err := store.Create(ctx, "demo")
	require.NoError(t, err)
	_, err = store.AddTestCase(ctx, "demo", "", models.DefaultScript)
	require.NoError(t, err)
	snap, err := store.TakeSnapshot(ctx, "demo", "v1")
	require.NoError(t, err)

	root := store.Root()
	scriptPath := filepath.Join(root, "demo", workspace.ScriptsDir, models.DefaultScript)
	snapScriptPath := filepath.Join(root, "demo", workspace.SnapshotsDir, snap.ID, workspace.ScriptsDir, models.DefaultScript)

	t.Run("script of the live playground", func(t *testing.T) {
		p, s, script, err := idx.ResolvePath(ctx, scriptPath)
		require.NoError(t, err)
		assert.Equal(t, "demo", p.Name)
		assert.Nil(t, s)
		require.NotNil(t, script)
		assert.False(t, script.Container.ReadOnly())
	})

	t.Run("script inside a snapshot", func(t *testing.T) {
		p, s, script, err := idx.ResolvePath(ctx, snapScriptPath)
		require.NoError(t, err)
		assert.Equal(t, "demo", p.Name)
		require.NotNil(t, s)
		assert.Equal(t, snap.ID, s.ID)
		assert.True(t, script.Container.ReadOnly())
	})

	t.Run("playground variables file", func(t *testing.T) {
		p, s, script, err := idx.ResolvePath(ctx, filepath.Join(root, "demo", workspace.ExtVarsFile))
		require.NoError(t, err)
		assert.Equal(t, "demo", p.Name)
		assert.Nil(t, s)
		assert.Nil(t, script)
	})

	t.Run("unknown entries", func(t *testing.T) {
		_, _, _, err := idx.ResolvePath(ctx, filepath.Join(root, "missing"))
		assert.ErrorIs(t, err, workspace.ErrNotFound)

		_, _, _, err = idx.ResolvePath(ctx, filepath.Join(root, "demo", workspace.SnapshotsDir, "1"))
		assert.ErrorIs(t, err, workspace.ErrNotFound)

		_, _, _, err = idx.ResolvePath(ctx, filepath.Join(t.TempDir(), "elsewhere"))
		assert.ErrorIs(t, err, workspace.ErrNotFound)
	})

	t.Run("most specific entity", func(t *testing.T) {
		e, err := idx.Entity(ctx, scriptPath+models.TestCaseSuffix)
		require.NoError(t, err)
		assert.Equal(t, models.KindTestCase, e.Kind())

		e, err = idx.Entity(ctx, scriptPath)
		require.NoError(t, err)
		assert.Equal(t, models.KindScript, e.Kind())

		e, err = idx.Entity(ctx, filepath.Join(root, "demo", workspace.SnapshotsDir, snap.ID))
		require.NoError(t, err)
		assert.Equal(t, models.KindSnapshot, e.Kind())

		e, err = idx.Entity(ctx, filepath.Join(root, "demo"))
		require.NoError(t, err)
		assert.Equal(t, models.KindPlayground, e.Kind())
	})
}

func TestIndex_OnSelect(t *testing.T) {
	ctx := context.Background()
	idx, store, ch := setup(t)

	p, err := store.Create(ctx, "demo")
	require.NoError(t, err)
	_, err = store.AddScript(ctx, "demo", "", "util")
	require.NoError(t, err)
	snap, err := store.TakeSnapshot(ctx, "demo", "")
	require.NoError(t, err)

	t.Run("playground", func(t *testing.T) {
		sel, err := idx.OnSelect(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, p.Container(), sel.Container)
		assert.Len(t, sel.Scripts, 2)
		assert.NotNil(t, sel.Variables)

		e := next(t, ch, events.SelectionChanged)
		assert.Equal(t, "demo", e.Playground)
		assert.Empty(t, e.SnapshotID)
	})

	t.Run("snapshot", func(t *testing.T) {
		sel, err := idx.OnSelect(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, snap.ID, sel.Container.SnapshotID)

		e := next(t, ch, events.SelectionChanged)
		assert.Equal(t, snap.ID, e.SnapshotID)
	})

	t.Run("script selects its container", func(t *testing.T) {
		script, err := store.Script(ctx, "demo", "", "util")
		require.NoError(t, err)

		sel, err := idx.OnSelect(ctx, script)
		require.NoError(t, err)
		assert.Equal(t, p.Container(), sel.Container)
	})

	t.Run("test case selects the container of its script", func(t *testing.T) {
		tc, err := store.AddTestCase(ctx, "demo", snap.ID, "util")
		assert.ErrorIs(t, err, workspace.ErrReadOnly)
		assert.Nil(t, tc)

		tc, err = store.AddTestCase(ctx, "demo", "", "util")
		require.NoError(t, err)

		sel, err := idx.OnSelect(ctx, tc)
		require.NoError(t, err)
		assert.Equal(t, p.Container(), sel.Container)
	})

	t.Run("active selection and document", func(t *testing.T) {
		sel, err := idx.Active(ctx)
		require.NoError(t, err)
		require.NotNil(t, sel)
		assert.Equal(t, "demo", sel.Container.Playground)

		doc := idx.ActiveDocument(filepath.Join(p.Location, workspace.ScriptsDir, "util"))
		require.NotNil(t, doc)
		assert.Equal(t, models.KindScript, doc.Kind())

		doc = idx.ActiveDocument(filepath.Join(p.Location, workspace.ExtVarsFile))
		require.NotNil(t, doc)
		assert.Equal(t, models.DefaultScript, doc.(*models.Script).Name)
	})

	t.Run("nil clears", func(t *testing.T) {
		sel, err := idx.OnSelect(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, sel.Scripts)

		active, err := idx.Active(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	t.Run("deleting the selected playground clears the selection", func(t *testing.T) {
		_, err := idx.OnSelect(ctx, p)
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "demo"))

		active, err := idx.Active(ctx)
		require.NoError(t, err)
		assert.Nil(t, active)
		assert.Empty(t, idx.Playgrounds())
	})
}
