package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/")
	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestWithSession(t *testing.T) {
	client := New("http://localhost:8080")
	sessClient := client.WithSession("abc")

	// Original client should not have a session
	assert.Empty(t, client.Session())

	assert.Equal(t, "abc", sessClient.Session())
	assert.Equal(t, "http://localhost:8080", sessClient.BaseURL())
}

func TestWithTimeout(t *testing.T) {
	client := New("http://localhost:8080").WithSession("abc")
	short := client.WithTimeout(2 * time.Second)

	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 2*time.Second, short.httpClient.Timeout)
	assert.Equal(t, "abc", short.Session())
	assert.NotSame(t, client, short)
}

func TestDoWithSuccess(t *testing.T) {
	type Response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get(SessionHeader))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Response{Message: "success"})
	}))
	defer server.Close()

	client := New(server.URL)

	var resp Response
	err := client.get("/test", &resp)
	require.NoError(t, err)
	assert.Equal(t, "success", resp.Message)
}

func TestDoWithSessionHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-1", r.Header.Get(SessionHeader))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL)
	client.SetSession("sess-1")
	require.NoError(t, client.get("/test", nil))
}

func TestDoWithAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":-1,"code":"Busy","error":"Busy: file has open handles (name: /a)"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	err := client.post("/test", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, StatusBusy, apiErr.Status)
	assert.Equal(t, "Busy", apiErr.Code)
	assert.True(t, apiErr.IsBusy())
	assert.True(t, apiErr.IsConflict())
	assert.False(t, apiErr.IsNotFound())
	assert.Equal(t, StatusBusy, StatusOf(err))
}

func TestDoWithNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).get("/test", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, StatusUnknown, apiErr.Status)
	assert.Equal(t, "gateway exploded", apiErr.Message)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusUnknown, StatusOf(errors.New("connection refused")))
	assert.Equal(t, StatusNotFound, StatusOf(&APIError{Status: StatusNotFound}))
}

func TestDoWithPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/files/open", r.URL.Path)

		var req openRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "/a", req.Name)
		assert.Equal(t, []string{"read"}, req.Flags)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":0,"handle":42}`))
	}))
	defer server.Close()

	h, err := New(server.URL).Open("/a", "read")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), h)
}
