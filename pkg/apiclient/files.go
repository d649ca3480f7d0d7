package apiclient

import (
	"net/url"
	"time"
)

// FileInfo describes a stored file.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	OpenCount  int       `json:"open_count"`
	Generation uint64    `json:"generation"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// SpaceInfo reports capacity usage. Total and Free are zero when the store
// has no capacity limit.
type SpaceInfo struct {
	Total       uint64 `json:"total"`
	Used        uint64 `json:"used"`
	Free        uint64 `json:"free"`
	Files       int    `json:"files"`
	MaxFiles    int    `json:"max_files"`
	OpenHandles int    `json:"open_handles"`
	MaxHandles  int    `json:"max_handles"`
}

// Health is the body of GET /health.
type Health struct {
	Service     string    `json:"service"`
	StartedAt   time.Time `json:"started_at"`
	Uptime      string    `json:"uptime"`
	UptimeSec   int64     `json:"uptime_sec"`
	Sessions    int       `json:"sessions"`
	Files       int       `json:"files"`
	OpenHandles int       `json:"open_handles"`
}

type openRequest struct {
	Name  string   `json:"name"`
	Flags []string `json:"flags,omitempty"`
}

type openResponse struct {
	Handle uint64 `json:"handle"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type fileResponse struct {
	File FileInfo `json:"file"`
}

type listResponse struct {
	Files []FileInfo `json:"files"`
}

type spaceResponse struct {
	Space SpaceInfo `json:"space"`
}

// Health returns the server liveness report.
func (c *Client) Health() (*Health, error) {
	return getResource[Health](c, "/health")
}

// Open opens name and returns the new handle. With no flags the file is
// created if missing and opened for reading and writing.
func (c *Client) Open(name string, flags ...string) (uint64, error) {
	resp, err := postResource[openResponse](c, "/api/v1/files/open", openRequest{Name: name, Flags: flags})
	if err != nil {
		return 0, err
	}
	return resp.Handle, nil
}

// CreateOrOpen opens name for reading and writing, creating it if missing.
func (c *Client) CreateOrOpen(name string) (uint64, error) {
	return c.Open(name)
}

// Stat returns information about name.
func (c *Client) Stat(name string) (*FileInfo, error) {
	resp, err := getResource[fileResponse](c, withQuery("/api/v1/files/stat", url.Values{"name": {name}}))
	if err != nil {
		return nil, err
	}
	return &resp.File, nil
}

// List returns every stored file.
func (c *Client) List() ([]FileInfo, error) {
	resp, err := getResource[listResponse](c, "/api/v1/files")
	if err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// Delete removes name. It fails with status Busy while name has open handles.
func (c *Client) Delete(name string) error {
	return c.post("/api/v1/files/delete", nameRequest{Name: name}, nil)
}

// Rename moves oldName to newName.
func (c *Client) Rename(oldName, newName string) error {
	return c.post("/api/v1/files/rename", renameRequest{Old: oldName, New: newName}, nil)
}

// Space reports capacity usage.
func (c *Client) Space() (*SpaceInfo, error) {
	resp, err := getResource[spaceResponse](c, "/api/v1/space")
	if err != nil {
		return nil, err
	}
	return &resp.Space, nil
}

// Format removes every file. It fails with status Busy while any handle is open.
func (c *Client) Format() error {
	return c.post("/api/v1/format", nil, nil)
}
