package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/guardfs/pkg/api/handlers"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/store"
)

type testAPI struct {
	t        *testing.T
	server   *httptest.Server
	registry *sessions.Registry
	session  string
}

func newTestAPI(t *testing.T, cfg APIConfig, storeCfg store.Config) *testAPI {
	t.Helper()
	cfg.ApplyDefaults()
	registry := sessions.NewRegistry(store.New(storeCfg, nil), cfg.MaxSessions, cfg.SessionIdleTimeout)
	srv := httptest.NewServer(NewRouter(cfg, registry))
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, registry: registry}
}

// do sends a request in the current session and decodes the response into out.
func (a *testAPI) do(method, path string, body, out any) int {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.session != "" {
		req.Header.Set("X-Session-ID", a.session)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) newSession() string {
	a.t.Helper()
	var resp handlers.SessionResponse
	code := a.do(http.MethodPost, "/api/v1/sessions", nil, &resp)
	require.Equal(a.t, http.StatusCreated, code)
	require.NotEmpty(a.t, resp.SessionID)
	a.session = resp.SessionID
	return resp.SessionID
}

func (a *testAPI) open(name string, flags ...string) (handlers.OpenResponse, int) {
	a.t.Helper()
	var resp handlers.OpenResponse
	code := a.do(http.MethodPost, "/api/v1/files/open", handlers.OpenRequest{Name: name, Flags: flags}, &resp)
	return resp, code
}

func (a *testAPI) write(h uint64, data []byte) (handlers.WriteResponse, int) {
	a.t.Helper()
	var resp handlers.WriteResponse
	code := a.do(http.MethodPost, fmt.Sprintf("/api/v1/handles/%d/write", h), handlers.WriteRequest{Data: data}, &resp)
	return resp, code
}

func (a *testAPI) close(h uint64) (handlers.Result, int) {
	a.t.Helper()
	var resp handlers.Result
	code := a.do(http.MethodPost, fmt.Sprintf("/api/v1/handles/%d/close", h), nil, &resp)
	return resp, code
}

func (a *testAPI) delete(name string) (handlers.Result, int) {
	a.t.Helper()
	var resp handlers.Result
	code := a.do(http.MethodPost, "/api/v1/files/delete", handlers.NameRequest{Name: name}, &resp)
	return resp, code
}

func (a *testAPI) lastStatus() int {
	a.t.Helper()
	var resp handlers.StatusResponse
	code := a.do(http.MethodGet, "/api/v1/sessions/"+a.session+"/status", nil, &resp)
	require.Equal(a.t, http.StatusOK, code)
	return resp.Status
}

// TestDeleteGuardScenario drives the delete guard over HTTP, checking the
// status register after every step the way a test script would.
func TestDeleteGuardScenario(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{})
	api.newSession()
	payload := bytes.Repeat([]byte{'x'}, 100)

	h1, code := api.open("/a")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, api.lastStatus())

	for i := 0; i < 100; i++ {
		_, code = api.write(uint64(h1.Handle), payload[i:i+1])
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 0, api.lastStatus())

	_, code = api.close(uint64(h1.Handle))
	require.Equal(t, http.StatusOK, code)

	res, code := api.delete("/a")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, res.Status)
	assert.Equal(t, 0, api.lastStatus())

	h2, code := api.open("/a")
	require.Equal(t, http.StatusOK, code)
	assert.Greater(t, uint64(h2.Handle), uint64(h1.Handle))

	w, code := api.write(uint64(h2.Handle), payload)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 100, w.Written)

	res, code = api.delete("/a")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, -1, res.Status)
	assert.Equal(t, "Busy", res.Code)
	assert.Equal(t, -1, api.lastStatus())

	var stat handlers.FileResponse
	code = api.do(http.MethodGet, "/api/v1/files/stat?name=/a", nil, &stat)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, stat.File)
	assert.Equal(t, int64(100), stat.File.Size)
	assert.Equal(t, 1, stat.File.OpenCount)

	res, code = api.close(uint64(h2.Handle))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, res.Status)

	res, code = api.close(uint64(h2.Handle))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -3, res.Status)
	assert.Equal(t, -3, api.lastStatus())

	res, code = api.delete("/a")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, res.Status)

	code = api.do(http.MethodGet, "/api/v1/files/stat?name=/a", nil, &stat)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, -2, stat.Status)
}

func TestReadSeekTruncate(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{})
	api.newSession()

	h, code := api.open("/f")
	require.Equal(t, http.StatusOK, code)
	base := fmt.Sprintf("/api/v1/handles/%d", h.Handle)

	_, code = api.write(uint64(h.Handle), []byte("hello world"))
	require.Equal(t, http.StatusOK, code)

	var seek handlers.SeekResponse
	code = api.do(http.MethodPost, base+"/seek", handlers.SeekRequest{Offset: 6}, &seek)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(6), seek.Position)

	var read handlers.ReadResponse
	code = api.do(http.MethodGet, base+"/read?count=64", nil, &read)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "world", string(read.Data))
	assert.Equal(t, 5, read.Count)
	assert.True(t, read.EOF)

	var res handlers.Result
	code = api.do(http.MethodPost, base+"/truncate", handlers.TruncateRequest{Size: 5}, &res)
	require.Equal(t, http.StatusOK, code)

	var fstat handlers.HandleResponse
	code = api.do(http.MethodGet, base, nil, &fstat)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(5), fstat.File.Size)
	assert.Equal(t, int64(11), fstat.Position)
	assert.True(t, fstat.EOF)

	code = api.do(http.MethodPost, base+"/seek", handlers.SeekRequest{Offset: 0, Whence: "sideways"}, &seek)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, seek.Status)
	assert.Equal(t, -6, api.lastStatus())

	code = api.do(http.MethodGet, base+"/read", nil, &read)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, read.Status)

	code = api.do(http.MethodPost, base+"/flush", nil, &res)
	assert.Equal(t, http.StatusOK, code)
}

func TestOpenFlags(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{})
	api.newSession()

	resp, code := api.open("/missing", "read")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, -2, resp.Status)

	resp, code = api.open("/x", "write", "create", "excl")
	require.Equal(t, http.StatusOK, code)
	_, code = api.close(uint64(resp.Handle))
	require.Equal(t, http.StatusOK, code)

	resp, code = api.open("/x", "write", "create", "excl")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, -5, resp.Status)

	resp, code = api.open("/x", "bogus")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, resp.Status)
	assert.Equal(t, -6, api.lastStatus())

	ro, code := api.open("/x", "read")
	require.Equal(t, http.StatusOK, code)
	w, code := api.write(uint64(ro.Handle), []byte("nope"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, -7, w.Status)
}

func TestRenameListSpaceFormat(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{Capacity: 1024, MaxFiles: 8})
	api.newSession()

	h, _ := api.open("/old")
	_, code := api.write(uint64(h.Handle), []byte("abc"))
	require.Equal(t, http.StatusOK, code)

	var res handlers.Result
	code = api.do(http.MethodPost, "/api/v1/files/rename", handlers.RenameRequest{Old: "/old", New: "/new"}, &res)
	require.Equal(t, http.StatusOK, code)

	var list handlers.ListResponse
	code = api.do(http.MethodGet, "/api/v1/files", nil, &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "/new", list.Files[0].Name)

	var space handlers.SpaceResponse
	code = api.do(http.MethodGet, "/api/v1/space", nil, &space)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1024), space.Space.Total)
	assert.Equal(t, uint64(3), space.Space.Used)
	assert.Equal(t, 1, space.Space.OpenHandles)

	code = api.do(http.MethodPost, "/api/v1/format", nil, &res)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, -1, res.Status)

	_, code = api.close(uint64(h.Handle))
	require.Equal(t, http.StatusOK, code)

	code = api.do(http.MethodPost, "/api/v1/format", nil, &res)
	require.Equal(t, http.StatusOK, code)

	code = api.do(http.MethodGet, "/api/v1/files", nil, &list)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, list.Files)
}

func TestCapacityExhausted(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{Capacity: 10})
	api.newSession()

	h, _ := api.open("/big")
	w, code := api.write(uint64(h.Handle), make([]byte, 11))
	assert.Equal(t, http.StatusInsufficientStorage, code)
	assert.Equal(t, -4, w.Status)
}

func TestOversizedPositionsAreRejected(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{MaxFileSize: 1024})
	api.newSession()

	h, code := api.open("/f")
	require.Equal(t, http.StatusOK, code)
	base := fmt.Sprintf("/api/v1/handles/%d", h.Handle)

	var res handlers.Result
	code = api.do(http.MethodPost, base+"/truncate", handlers.TruncateRequest{Size: 1 << 40}, &res)
	assert.Equal(t, http.StatusInsufficientStorage, code)
	assert.Equal(t, -4, res.Status)

	var seek handlers.SeekResponse
	code = api.do(http.MethodPost, base+"/seek", handlers.SeekRequest{Offset: 1 << 40}, &seek)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, seek.Status)

	code = api.do(http.MethodPost, base+"/seek", handlers.SeekRequest{Offset: 1020}, &seek)
	require.Equal(t, http.StatusOK, code)
	w, code := api.write(uint64(h.Handle), []byte("overflow"))
	assert.Equal(t, http.StatusInsufficientStorage, code)
	assert.Equal(t, -4, w.Status)

	var space handlers.SpaceResponse
	code = api.do(http.MethodGet, "/api/v1/space", nil, &space)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(0), space.Space.Used)
}

func TestMaxIOSize(t *testing.T) {
	api := newTestAPI(t, APIConfig{MaxIOSize: 8}, store.Config{})
	api.newSession()

	h, _ := api.open("/f")
	w, code := api.write(uint64(h.Handle), make([]byte, 9))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, w.Status)

	var read handlers.ReadResponse
	code = api.do(http.MethodGet, fmt.Sprintf("/api/v1/handles/%d/read?count=9", h.Handle), nil, &read)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessions(t *testing.T) {
	t.Run("UnknownSessionIsRejected", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{}, store.Config{})
		api.session = "6f1c2b9e-3a0d-4c55-9b1e-2f0a7c1d9e44"

		var res handlers.Result
		code := api.do(http.MethodGet, "/api/v1/files", nil, &res)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, -2, res.Status)
	})

	t.Run("HeaderlessRequestsUseEphemeralSession", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{}, store.Config{})

		h, code := api.open("/tmp")
		require.Equal(t, http.StatusOK, code)
		assert.NotZero(t, h.Handle)
		assert.Equal(t, 0, api.registry.Len())
	})

	t.Run("StatusIsPerSession", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{}, store.Config{})
		first := api.newSession()
		_, _ = api.delete("/missing")
		assert.Equal(t, -2, api.lastStatus())

		api.newSession()
		assert.Equal(t, 0, api.lastStatus())

		api.session = first
		assert.Equal(t, -2, api.lastStatus())
	})

	t.Run("ResetStatus", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{}, store.Config{})
		id := api.newSession()
		_, _ = api.delete("/missing")

		var status handlers.StatusResponse
		code := api.do(http.MethodDelete, "/api/v1/sessions/"+id+"/status", nil, &status)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 0, status.Status)
		assert.Equal(t, 0, api.lastStatus())
	})

	t.Run("EndClosesHandles", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{}, store.Config{})
		id := api.newSession()
		_, _ = api.open("/held")
		_, _ = api.open("/held")

		var end handlers.EndResponse
		code := api.do(http.MethodDelete, "/api/v1/sessions/"+id, nil, &end)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, 2, end.ClosedHandles)
		assert.Equal(t, 0, api.registry.Store().OpenCount("/held"))

		code = api.do(http.MethodDelete, "/api/v1/sessions/"+id, nil, &end)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Limit", func(t *testing.T) {
		api := newTestAPI(t, APIConfig{MaxSessions: 1}, store.Config{})
		api.newSession()

		var res handlers.Result
		code := api.do(http.MethodPost, "/api/v1/sessions", nil, &res)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, -4, res.Status)
	})
}

func TestMalformedRequests(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{})

	var res handlers.Result
	code := api.do(http.MethodPost, "/api/v1/handles/abc/close", nil, &res)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, -6, res.Status)

	req, err := http.NewRequest(http.MethodPost, api.server.URL+"/api/v1/files/open", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := api.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, APIConfig{}, store.Config{})

	var health handlers.HealthResponse
	code := api.do(http.MethodGet, "/health", nil, &health)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "guardfs", health.Service)
	assert.Equal(t, 0, health.Status)
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(APIConfig{Port: freePort(t)}, store.New(store.Config{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", srv.Port()))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	// Stop is idempotent.
	assert.NoError(t, srv.Stop(context.Background()))
}

func TestReapInterval(t *testing.T) {
	assert.Equal(t, time.Second, reapInterval(0))
	assert.Equal(t, 3*time.Second, reapInterval(30*time.Second))
	assert.Equal(t, time.Minute, reapInterval(time.Hour))
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}
