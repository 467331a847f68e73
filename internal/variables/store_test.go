package variables

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andythehood/datatransformer-playground/internal/workspace"
	"github.com/andythehood/datatransformer-playground/pkg/models"
)

func container(t *testing.T) models.Container {
	return models.Container{Playground: "demo", Dir: t.TempDir()}
}

func TestVariables_ListHelpers(t *testing.T) {
	vars := Variables{
		{Name: "a", Type: models.VariableString, Value: "x"},
		{Name: "b", Type: models.VariableInt, Value: "1"},
	}

	t.Run("has", func(t *testing.T) {
		assert.True(t, vars.Has("a"))
		assert.False(t, vars.Has("z"))
	})

	t.Run("set open", func(t *testing.T) {
		v := append(Variables{}, vars...)
		assert.True(t, v.SetOpen("b", true))
		assert.True(t, v[1].Open)
		assert.False(t, v.SetOpen("z", true))
	})

	t.Run("remove keeps order and leaves the receiver alone", func(t *testing.T) {
		v := append(Variables{}, vars...)
		v = append(v, models.ExternalVariable{Name: "c", Type: models.VariableJSON, Value: "{}"})

		out := v.Remove("b")
		require.Len(t, out, 2)
		assert.Equal(t, "a", out[0].Name)
		assert.Equal(t, "c", out[1].Name)
		assert.Equal(t, "b", v[1].Name)

		assert.Len(t, v.Remove("z"), 3)
	})

	t.Run("append rejects duplicates", func(t *testing.T) {
		out, err := vars.Append(models.ExternalVariable{Name: "c", Type: models.VariableArray, Value: "[]"})
		require.NoError(t, err)
		assert.Len(t, out, 3)

		_, err = vars.Append(models.ExternalVariable{Name: "a", Type: models.VariableString})
		assert.ErrorIs(t, err, workspace.ErrInvalidVariable)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(nil))
	assert.NoError(t, Validate(Variables{{Name: "a", Type: models.VariableDouble, Value: "1.5"}}))

	assert.ErrorIs(t, Validate(Variables{{Name: "", Type: models.VariableString}}), workspace.ErrInvalidVariable)
	assert.ErrorIs(t, Validate(Variables{{Name: "a", Type: "bool"}}), workspace.ErrInvalidVariable)
	assert.ErrorIs(t, Validate(Variables{
		{Name: "a", Type: models.VariableString},
		{Name: "a", Type: models.VariableInt},
	}), workspace.ErrInvalidVariable)
}

func TestStore_LoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	t.Run("missing file is an empty list", func(t *testing.T) {
		vars, err := s.Load(ctx, container(t))
		require.NoError(t, err)
		assert.NotNil(t, vars)
		assert.Empty(t, vars)
	})

	t.Run("empty file is an empty list", func(t *testing.T) {
		c := container(t)
		require.NoError(t, os.WriteFile(filepath.Join(c.Dir, workspace.ExtVarsFile), []byte("  \n"), 0644))

		vars, err := s.Load(ctx, c)
		require.NoError(t, err)
		assert.Empty(t, vars)
	})

	t.Run("save replaces the whole list", func(t *testing.T) {
		c := container(t)
		first := Variables{
			{Name: "a", Type: models.VariableString, Value: "x", Open: true},
			{Name: "b", Type: models.VariableJSON, Value: `{"k":1}`},
		}
		require.NoError(t, s.Save(ctx, c, first))
		require.NoError(t, s.Save(ctx, c, first.Remove("a")))

		vars, err := s.Load(ctx, c)
		require.NoError(t, err)
		require.Len(t, vars, 1)
		assert.Equal(t, "b", vars[0].Name)
		assert.Equal(t, `{"k":1}`, vars[0].Value)
	})

	t.Run("save writes two space indented json", func(t *testing.T) {
		c := container(t)
		require.NoError(t, s.Save(ctx, c, Variables{{Name: "a", Type: models.VariableInt, Value: "1"}}))

		data, err := os.ReadFile(filepath.Join(c.Dir, workspace.ExtVarsFile))
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  {\n    \"name\": \"a\"")
	})

	t.Run("nil list is saved as an empty array", func(t *testing.T) {
		c := container(t)
		require.NoError(t, s.Save(ctx, c, nil))

		data, err := os.ReadFile(filepath.Join(c.Dir, workspace.ExtVarsFile))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("snapshots are read-only", func(t *testing.T) {
		c := container(t)
		c.SnapshotID = "1700000000000"
		err := s.Save(ctx, c, Variables{})
		assert.ErrorIs(t, err, workspace.ErrReadOnly)
		assert.NoFileExists(t, filepath.Join(c.Dir, workspace.ExtVarsFile))
	})

	t.Run("invalid lists are not written", func(t *testing.T) {
		c := container(t)
		err := s.Save(ctx, c, Variables{{Name: "a", Type: "nope"}})
		assert.ErrorIs(t, err, workspace.ErrInvalidVariable)
		assert.NoFileExists(t, filepath.Join(c.Dir, workspace.ExtVarsFile))
	})
}

func TestStore_Select(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, ok := s.Active()
	assert.False(t, ok)

	c := container(t)
	require.NoError(t, s.Save(ctx, c, Variables{{Name: "a", Type: models.VariableString}}))

	vars, err := s.Select(ctx, &c)
	require.NoError(t, err)
	assert.Len(t, vars, 1)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, c, active)

	_, err = s.Select(ctx, nil)
	require.NoError(t, err)
	_, ok = s.Active()
	assert.False(t, ok)
}
