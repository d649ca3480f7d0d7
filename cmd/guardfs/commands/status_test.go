package commands

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/guardfs/pkg/api"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/apiclient"
	"github.com/marmos91/guardfs/pkg/store"
)

func TestCollectStatus_Healthy(t *testing.T) {
	s := store.New(store.Config{}, nil)
	_, err := s.CreateOrOpen("/a")
	assert.NoError(t, err)

	registry := sessions.NewRegistry(s, 0, 0)
	srv := httptest.NewServer(api.NewRouter(api.APIConfig{}, registry))
	defer srv.Close()

	status := collectStatus(apiclient.New(srv.URL), 0, false)

	assert.True(t, status.Running)
	assert.True(t, status.Healthy)
	assert.Equal(t, 1, status.Files)
	assert.Equal(t, 1, status.OpenHandles)
	assert.False(t, status.StartedAt.IsZero())
}

func TestCollectStatus_ProcessWithoutAPI(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	status := collectStatus(apiclient.New(srv.URL), 4242, true)

	assert.True(t, status.Running)
	assert.False(t, status.Healthy)
	assert.Equal(t, 4242, status.PID)
	assert.Equal(t, "Server process exists but health check failed", status.Message)
}

func TestCollectStatus_Stopped(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	status := collectStatus(apiclient.New(srv.URL), 0, false)

	assert.False(t, status.Running)
	assert.Equal(t, "Server is not running", status.Message)
}
