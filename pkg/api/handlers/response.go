// Package handlers provides the HTTP handlers for the guardfs store API.
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
)

// ContentTypeJSON is the Content-Type of every API response.
const ContentTypeJSON = "application/json"

// Result is embedded in every store response. Status is the numeric store
// status of the operation (0 on success); Code and Error are set on failure.
type Result struct {
	Status int    `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OK is the result of a successful operation.
var OK = Result{Status: storeerrors.StatusOK}

// ResultOf converts an operation error into a Result.
func ResultOf(err error) Result {
	if err == nil {
		return OK
	}
	res := Result{
		Status: storeerrors.StatusOf(err),
		Code:   "Unknown",
		Error:  err.Error(),
	}
	if code, ok := storeerrors.CodeOf(err); ok {
		res.Code = code.String()
	}
	return res
}

// HTTPStatus maps a store status code to the HTTP status code reported with it.
func HTTPStatus(status int) int {
	switch status {
	case storeerrors.StatusOK:
		return http.StatusOK
	case storeerrors.StatusBusy, storeerrors.StatusAlreadyExists:
		return http.StatusConflict
	case storeerrors.StatusNotFound:
		return http.StatusNotFound
	case storeerrors.StatusInvalidHandle, storeerrors.StatusInvalidArgument:
		return http.StatusBadRequest
	case storeerrors.StatusResourceExhausted:
		return http.StatusInsufficientStorage
	case storeerrors.StatusAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes data as a JSON response with the given HTTP status.
// Encoding happens before any header is written so a marshal failure still
// yields a clean 500.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		http.Error(w, `{"status":-100,"code":"Unknown","error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// WriteError writes the Result of a failed operation with its mapped HTTP status.
func WriteError(w http.ResponseWriter, err error) {
	res := ResultOf(err)
	WriteJSON(w, HTTPStatus(res.Status), res)
}

// WriteResult writes res with the HTTP status mapped from res.Status.
func WriteResult(w http.ResponseWriter, res Result) {
	WriteJSON(w, HTTPStatus(res.Status), res)
}

// BadRequest writes an InvalidArgument result for malformed requests that
// never reach the store.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, storeerrors.NewInvalidArgumentError(detail))
}

// SessionNotFound writes a 404 for unknown X-Session-ID values.
func SessionNotFound(w http.ResponseWriter, id string) {
	WriteJSON(w, http.StatusNotFound, Result{
		Status: storeerrors.StatusNotFound,
		Code:   storeerrors.ErrNotFound.String(),
		Error:  "session not found: " + id,
	})
}

// TooManySessions writes a 503 when the session limit is reached.
func TooManySessions(w http.ResponseWriter) {
	WriteJSON(w, http.StatusServiceUnavailable, Result{
		Status: storeerrors.StatusResourceExhausted,
		Code:   storeerrors.ErrResourceExhausted.String(),
		Error:  "session limit reached",
	})
}

// InternalServerError writes a 500 for failures outside the store.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteJSON(w, http.StatusInternalServerError, Result{
		Status: storeerrors.StatusUnknown,
		Code:   "Unknown",
		Error:  detail,
	})
}
