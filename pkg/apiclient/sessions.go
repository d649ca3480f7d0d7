package apiclient

import "time"

// Session is a server-side session as returned on creation.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStatus is the status register of a session. Status, Code and
// Error describe the last operation the session performed.
type SessionStatus struct {
	Status      int       `json:"status"`
	Code        string    `json:"code,omitempty"`
	Error       string    `json:"error,omitempty"`
	SessionID   string    `json:"session_id"`
	Operations  uint64    `json:"operations"`
	OpenHandles []uint64  `json:"open_handles"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    time.Time `json:"last_used"`
}

// SessionInfo summarizes a registered session.
type SessionInfo struct {
	ID          string    `json:"session_id"`
	LastStatus  int       `json:"last_status"`
	Operations  uint64    `json:"operations"`
	OpenHandles []uint64  `json:"open_handles"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsed    time.Time `json:"last_used"`
}

type sessionList struct {
	Sessions []SessionInfo `json:"sessions"`
}

type endResponse struct {
	ClosedHandles int `json:"closed_handles"`
}

// CreateSession registers a new session on the server.
func (c *Client) CreateSession() (*Session, error) {
	return postResource[Session](c, "/api/v1/sessions", nil)
}

// ListSessions returns every registered session.
func (c *Client) ListSessions() ([]SessionInfo, error) {
	list, err := getResource[sessionList](c, "/api/v1/sessions")
	if err != nil {
		return nil, err
	}
	return list.Sessions, nil
}

// SessionStatus returns the status register of session id.
func (c *Client) SessionStatus(id string) (*SessionStatus, error) {
	return getResource[SessionStatus](c, resourcePath("/api/v1/sessions/%s/status", id))
}

// ResetStatus clears the status register of session id.
func (c *Client) ResetStatus(id string) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.delete(resourcePath("/api/v1/sessions/%s/status", id), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// EndSession ends session id and returns how many handles the server closed.
func (c *Client) EndSession(id string) (int, error) {
	var resp endResponse
	if err := c.delete(resourcePath("/api/v1/sessions/%s", id), &resp); err != nil {
		return 0, err
	}
	return resp.ClosedHandles, nil
}
