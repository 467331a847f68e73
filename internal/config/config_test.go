package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PLAYGROUND_CONFIG", "")
	t.Setenv("PORT", "")
	t.Setenv("PLAYGROUND_ROOT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, filepath.Join("storage", "playgrounds"), cfg.PlaygroundsPath())
	assert.Equal(t, filepath.Join("storage", "libraries"), cfg.LibrariesPath())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
storage:
  root: /srv/playgrounds
exec:
  serverUrl: http://exec:8081
  timeout: 45s
  maxConcurrent: 4
`), 0644))

	t.Setenv("PLAYGROUND_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("PLAYGROUND_ROOT", "")
	t.Setenv("EXEC_MAX_CONCURRENT", "8")
	t.Setenv("EXEC_RUNS_PER_MINUTE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/srv/playgrounds", cfg.Storage.Root)
	assert.Equal(t, "http://exec:8081", cfg.Exec.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.Exec.Timeout)
	assert.Equal(t, 8, cfg.Exec.MaxConcurrent)
	assert.Equal(t, 60, cfg.Exec.RunsPerMinute)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("PLAYGROUND_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
		_, err := Load()
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("PLAYGROUND_CONFIG", "")
		t.Setenv("EXEC_TIMEOUT", "-1s")
		_, err := Load()
		assert.ErrorContains(t, err, "EXEC_TIMEOUT")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Exec.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Root = ""
	assert.Error(t, cfg.Validate())
}
