package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHome(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "home")
	t.Setenv("ROADMAPPER_HOME", dir)
	t.Setenv("ROADMAPPER_PROJECT", "")
	return dir
}

func TestSaveLoadDelete(t *testing.T) {
	dir := setupHome(t)

	s, err := Load()
	require.NoError(t, err)
	assert.Nil(t, s, "not logged in")
	assert.Empty(t, s.ProjectID())

	saved, err := Save("sandeep", "vision-2026")
	require.NoError(t, err)
	assert.Equal(t, "file", saved.Source)

	info, err := os.Stat(filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	s, err = Load()
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "sandeep", s.Username)
	assert.Equal(t, "vision-2026", s.ProjectID())

	require.NoError(t, Delete())
	require.NoError(t, Delete(), "deleting twice is fine")

	s, err = Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestEnvOverride(t *testing.T) {
	setupHome(t)
	_, err := Save("sandeep", "vision-2026")
	require.NoError(t, err)

	t.Setenv("ROADMAPPER_PROJECT", "ci-project")
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ci-project", s.ProjectID())
	assert.Equal(t, "env", s.Source)
}

func TestSave_RequiresFields(t *testing.T) {
	setupHome(t)
	_, err := Save("", "p")
	assert.Error(t, err)
	_, err = Save("u", "")
	assert.Error(t, err)
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := setupHome(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse session")
}
