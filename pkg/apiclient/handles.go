package apiclient

import (
	"net/url"
	"strconv"
)

// HandleInfo describes a live handle and the file behind it.
type HandleInfo struct {
	Handle   uint64   `json:"handle"`
	Position int64    `json:"position"`
	EOF      bool     `json:"eof"`
	File     FileInfo `json:"file"`
}

// ReadResult carries the bytes returned by a read.
type ReadResult struct {
	Data  []byte `json:"data"`
	Count int    `json:"count"`
	EOF   bool   `json:"eof"`
}

type writeRequest struct {
	Data []byte `json:"data"`
}

type writeResponse struct {
	Written int `json:"written"`
}

type seekRequest struct {
	Offset int64  `json:"offset"`
	Whence string `json:"whence,omitempty"`
}

type seekResponse struct {
	Position int64 `json:"position"`
}

type truncateRequest struct {
	Size int64 `json:"size"`
}

// FStat returns information about handle h.
func (c *Client) FStat(h uint64) (*HandleInfo, error) {
	return getResource[HandleInfo](c, resourcePath("/api/v1/handles/%d", h))
}

// Write writes data at the handle position and returns the bytes written.
func (c *Client) Write(h uint64, data []byte) (int, error) {
	resp, err := postResource[writeResponse](c, resourcePath("/api/v1/handles/%d/write", h), writeRequest{Data: data})
	if err != nil {
		return 0, err
	}
	return resp.Written, nil
}

// Read reads up to count bytes from the handle position.
func (c *Client) Read(h uint64, count int) (*ReadResult, error) {
	path := withQuery(resourcePath("/api/v1/handles/%d/read", h), url.Values{"count": {strconv.Itoa(count)}})
	return getResource[ReadResult](c, path)
}

// Seek moves the handle position. whence is "set", "cur" or "end".
func (c *Client) Seek(h uint64, offset int64, whence string) (int64, error) {
	resp, err := postResource[seekResponse](c, resourcePath("/api/v1/handles/%d/seek", h), seekRequest{Offset: offset, Whence: whence})
	if err != nil {
		return 0, err
	}
	return resp.Position, nil
}

// Truncate resizes the file behind handle h.
func (c *Client) Truncate(h uint64, size int64) error {
	return c.post(resourcePath("/api/v1/handles/%d/truncate", h), truncateRequest{Size: size}, nil)
}

// Flush validates handle h.
func (c *Client) Flush(h uint64) error {
	return c.post(resourcePath("/api/v1/handles/%d/flush", h), nil, nil)
}

// Close releases handle h. Closing a handle twice fails with InvalidHandle.
func (c *Client) Close(h uint64) error {
	return c.post(resourcePath("/api/v1/handles/%d/close", h), nil, nil)
}
