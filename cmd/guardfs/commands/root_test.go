package commands

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := GetRootCmd()

	for _, name := range []string{"start", "stop", "status", "init", "logs", "config", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}

	for _, name := range []string{"show", "validate", "edit", "schema"} {
		cmd, _, err := root.Find([]string{"config", name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	flag := GetRootCmd().PersistentFlags().Lookup("config")
	if assert.NotNil(t, flag) {
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestInit_Print(t *testing.T) {
	initPrint = true
	t.Cleanup(func() { initPrint = false })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	require.NoError(t, runInit(cmd, nil))

	assert.Contains(t, buf.String(), "# guardfs configuration file")
	assert.Contains(t, buf.String(), "store:")
}

func TestWaitForExit_MissingPidFile(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "guardfs.pid")
	assert.True(t, waitForExit(pidPath, time.Second))
}
