package scaffold

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyluth/roadmapper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	for _, env := range []string{"REDIS_URL", "ROADMAPPER_ADDR", "ROADMAPPER_API", "ROADMAPPER_BACKEND"} {
		t.Setenv(env, "")
	}

	t.Run("fresh initialization uses defaults", func(t *testing.T) {
		dir := t.TempDir()

		path, err := Initialize(dir, Options{}, false)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "roadmapper.yml"), path)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.BackendAPI, cfg.Backend)
		assert.Equal(t, "http://localhost:8080", cfg.API.URL)
		assert.Equal(t, 10*time.Second, cfg.Sync.PollInterval)
		assert.Equal(t, "vision-2026", cfg.Setup.DefaultProject)
	})

	t.Run("options are written into the file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")

		path, err := Initialize(dir, Options{Backend: "sqlite", SQLitePath: "/tmp/plans.db"}, false)
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.BackendSQLite, cfg.Backend)
		assert.Equal(t, "/tmp/plans.db", cfg.SQLite.Path)
	})

	t.Run("existing file is kept without force", func(t *testing.T) {
		dir := t.TempDir()
		existing := filepath.Join(dir, "roadmapper.yml")
		require.NoError(t, os.WriteFile(existing, []byte("old content"), 0o644))

		_, err := Initialize(dir, Options{}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project already initialized")
		assert.Contains(t, err.Error(), "roadmapper init --force")

		data, err := os.ReadFile(existing)
		require.NoError(t, err)
		assert.Equal(t, "old content", string(data))
	})

	t.Run("force overwrites", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "roadmapper.yml"), []byte("old content"), 0o644))

		path, err := Initialize(dir, Options{Backend: "redis"}, true)
		require.NoError(t, err)

		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, config.BackendRedis, cfg.Backend)
	})

	t.Run("invalid backend writes nothing", func(t *testing.T) {
		dir := t.TempDir()

		_, err := Initialize(dir, Options{Backend: "postgres"}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid backend")
		assert.NoFileExists(t, filepath.Join(dir, "roadmapper.yml"))
	})
}

func TestCheckExisting(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CheckExisting(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "roadmapper.yml"), []byte("version: \"1.0\"\n"), 0o644))
	assert.Error(t, CheckExisting(dir))
}
