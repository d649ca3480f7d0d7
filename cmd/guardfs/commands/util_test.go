package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultStateDir_XDG(t *testing.T) {
	if os.Getenv("LOCALAPPDATA") != "" {
		t.Skip("windows layout")
	}
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "guardfs"), GetDefaultStateDir())
	assert.Equal(t, filepath.Join(dir, "guardfs", "guardfs.pid"), GetDefaultPidFile())
	assert.Equal(t, filepath.Join(dir, "guardfs", "guardfs.log"), GetDefaultLogFile())
}

func TestPidFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "guardfs.pid")

	require.NoError(t, writePidFile(path))
	pid, err := readPidFile(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPidFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0644))

	_, err := readPidFile(path)
	assert.Error(t, err)

	_, err = readPidFile(filepath.Join(t.TempDir(), "missing.pid"))
	assert.True(t, os.IsNotExist(err))
}

func TestGetConfigSource(t *testing.T) {
	assert.Equal(t, "/etc/guardfs.yaml", getConfigSource("/etc/guardfs.yaml"))

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.Equal(t, "defaults", getConfigSource(""))
}
