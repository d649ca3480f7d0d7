package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingFileIsEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	_, err = s.Session("http://localhost:8080")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, s.DefaultServer())
}

func TestSessions_PersistAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	const server = "http://localhost:8080"

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetSession(server, "abc-123"))
	require.NoError(t, s.SetDefaultServer(server))
	require.NoError(t, s.SetDefaultOutput("json"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePermissions), info.Mode().Perm())

	reopened, err := Open(path)
	require.NoError(t, err)
	sess, err := reopened.Session(server)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
	assert.Equal(t, server, reopened.DefaultServer())
	assert.Equal(t, "json", reopened.DefaultOutput())

	require.NoError(t, reopened.ClearSession(server))
	require.NoError(t, reopened.ClearSession(server))
	_, err = reopened.Session(server)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestDefaultPath_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DirName, FileName), path)
}
