package cmdutil

import (
	"bytes"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/guardfs/internal/cli/state"
	"github.com/marmos91/guardfs/pkg/api"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/apiclient"
	"github.com/marmos91/guardfs/pkg/store"
)

// setup points the global flags at a fresh server and state file.
func setup(t *testing.T) (*sessions.Registry, string) {
	t.Helper()

	registry := sessions.NewRegistry(store.New(store.Config{}, nil), 0, 0)
	srv := httptest.NewServer(api.NewRouter(api.APIConfig{}, registry))
	t.Cleanup(srv.Close)

	saved := *Flags
	t.Cleanup(func() { *Flags = saved })
	*Flags = GlobalFlags{
		ServerURL: srv.URL,
		StateFile: filepath.Join(t.TempDir(), "state.json"),
		Output:    "table",
	}
	return registry, srv.URL
}

func TestServerURL(t *testing.T) {
	saved := *Flags
	t.Cleanup(func() { *Flags = saved })
	t.Setenv(EnvServer, "")

	st, err := state.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	Flags.ServerURL = ""
	assert.Equal(t, DefaultServerURL, ServerURL(st))

	require.NoError(t, st.SetDefaultServer("http://saved:1"))
	assert.Equal(t, "http://saved:1", ServerURL(st))

	t.Setenv(EnvServer, "http://env:2")
	assert.Equal(t, "http://env:2", ServerURL(st))

	Flags.ServerURL = "http://flag:3"
	assert.Equal(t, "http://flag:3", ServerURL(st))
}

func TestGetSessionClient_CreatesAndReusesSession(t *testing.T) {
	registry, url := setup(t)

	first, err := GetSessionClient()
	require.NoError(t, err)
	require.NotEmpty(t, first.Session())
	assert.Equal(t, 1, registry.Len())

	second, err := GetSessionClient()
	require.NoError(t, err)
	assert.Equal(t, first.Session(), second.Session())
	assert.Equal(t, 1, registry.Len())

	st, err := OpenState()
	require.NoError(t, err)
	saved, err := st.Session(url)
	require.NoError(t, err)
	assert.Equal(t, first.Session(), saved.ID)
}

func TestGetSessionClient_FlagsOverrideState(t *testing.T) {
	registry, _ := setup(t)

	Flags.Ephemeral = true
	client, err := GetSessionClient()
	require.NoError(t, err)
	assert.Empty(t, client.Session())

	Flags.Ephemeral = false
	Flags.Session = "11111111-2222-3333-4444-555555555555"
	client, err = GetSessionClient()
	require.NoError(t, err)
	assert.Equal(t, Flags.Session, client.Session())
	assert.Equal(t, 0, registry.Len())
}

func TestRunInSession_ReplacesExpiredSession(t *testing.T) {
	registry, _ := setup(t)

	client, err := GetSessionClient()
	require.NoError(t, err)
	stale := client.Session()
	_, err = registry.Remove(stale)
	require.NoError(t, err)

	var calls int
	var used string
	err = RunInSession(func(c *apiclient.Client) error {
		calls++
		used = c.Session()
		_, err := c.List()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEqual(t, stale, used)
	assert.Equal(t, 1, registry.Len())
}

func TestRunInSession_ExplicitSessionNotReplaced(t *testing.T) {
	registry, _ := setup(t)
	Flags.Session = "11111111-2222-3333-4444-555555555555"

	var calls int
	err := RunInSession(func(c *apiclient.Client) error {
		calls++
		_, err := c.List()
		return err
	})
	assert.True(t, apiclient.IsSessionNotFound(err))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, registry.Len())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"busy", &apiclient.APIError{Status: apiclient.StatusBusy}, 1},
		{"not found", &apiclient.APIError{Status: apiclient.StatusNotFound}, 2},
		{"wrapped invalid handle", fmt.Errorf("close: %w", &apiclient.APIError{Status: apiclient.StatusInvalidHandle}), 3},
		{"unknown", &apiclient.APIError{Status: apiclient.StatusUnknown}, 100},
		{"exit error", &ExitError{Code: 7, Err: errors.New("x")}, 7},
		{"plain", errors.New("connection refused"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestParseHandle(t *testing.T) {
	h, err := ParseHandle("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h)

	_, err = ParseHandle("-1")
	assert.Error(t, err)
	_, err = ParseHandle("abc")
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	saved := *Flags
	t.Cleanup(func() { *Flags = saved })

	var buf bytes.Buffer
	Flags.Output = "table"
	require.NoError(t, PrintResult(&buf, map[string]int{"handle": 3}, "3"))
	assert.Equal(t, "3\n", buf.String())

	buf.Reset()
	Flags.Output = "json"
	require.NoError(t, PrintResult(&buf, map[string]int{"handle": 3}, "3"))
	assert.JSONEq(t, `{"handle":3}`, buf.String())

	Flags.Output = "xml"
	assert.Error(t, PrintResult(&buf, nil, ""))
}
