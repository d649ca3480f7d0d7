package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Store status codes as reported in the "status" field of every response.
const (
	StatusOK                = 0
	StatusBusy              = -1
	StatusNotFound          = -2
	StatusInvalidHandle     = -3
	StatusResourceExhausted = -4
	StatusAlreadyExists     = -5
	StatusInvalidArgument   = -6
	StatusAccessDenied      = -7
	StatusUnknown           = -100
)

// APIError represents an error response from the API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int `json:"-"`

	// Status is the numeric store status of the failed operation.
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return e.Message
}

// IsBusy returns true if the file still had open handles.
func (e *APIError) IsBusy() bool {
	return e.Status == StatusBusy
}

// IsNotFound returns true if this is a not found error.
func (e *APIError) IsNotFound() bool {
	return e.Status == StatusNotFound
}

// IsInvalidHandle returns true if the handle was closed or never issued.
func (e *APIError) IsInvalidHandle() bool {
	return e.Status == StatusInvalidHandle
}

// IsConflict returns true if this is a conflict error.
func (e *APIError) IsConflict() bool {
	return e.Status == StatusBusy || e.Status == StatusAlreadyExists
}

// IsSessionNotFound returns true if the X-Session-ID was rejected because
// the server does not know the session, e.g. after a restart or idle reap.
func (e *APIError) IsSessionNotFound() bool {
	return e.StatusCode == http.StatusNotFound && strings.HasPrefix(e.Message, "session not found")
}

// IsSessionNotFound reports whether err is a rejected session.
func IsSessionNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsSessionNotFound()
}

// StatusOf returns the store status carried by err: 0 for nil, the API
// status for an *APIError and StatusUnknown for transport failures.
func StatusOf(err error) int {
	if err == nil {
		return StatusOK
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return StatusUnknown
}
