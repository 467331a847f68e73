package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andythehood/datatransformer-playground/internal/events"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	hub := events.NewHub(8)
	_, ch := hub.Subscribe()
	r := NewRegistry(hub)

	_, err := r.Open("")
	assert.Error(t, err)

	doc, err := r.Open("/root/demo/scripts/util")
	require.NoError(t, err)
	again, err := r.Open("/root/demo/scripts/../scripts/util")
	require.NoError(t, err)
	assert.Same(t, doc, again)

	_, err = r.Open("/root/demo/scripts/default")
	require.NoError(t, err)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "/root/demo/scripts/default", list[0].Path)

	t.Run("paths compare case-insensitively", func(t *testing.T) {
		assert.True(t, r.IsOpen("/ROOT/demo/scripts/UTIL"))
	})

	t.Run("close publishes once", func(t *testing.T) {
		require.NoError(t, r.CloseIfOpen(ctx, "/root/demo/scripts/util"))
		assert.False(t, r.IsOpen("/root/demo/scripts/util"))

		e := <-ch
		assert.Equal(t, events.EditorClose, e.Type)
		assert.Equal(t, "/root/demo/scripts/util", e.Path)

		require.NoError(t, r.CloseIfOpen(ctx, "/root/demo/scripts/util"))
		select {
		case e := <-ch:
			t.Fatalf("unexpected event %s", e.Type)
		default:
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, r.CloseIfOpen(cctx, "/root/demo/scripts/default"), context.Canceled)
		assert.True(t, r.IsOpen("/root/demo/scripts/default"))
	})
}
