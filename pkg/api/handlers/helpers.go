package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/store"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			BadRequest(w, "request body too large")
			return false
		}
		BadRequest(w, "invalid request body")
		return false
	}
	return true
}

// sessionOrError returns the session the middleware resolved for r.
// Returns nil and false (writing a 500) when the route is not wrapped by the
// session middleware.
func sessionOrError(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	_, sess := sessions.FromContext(r.Context())
	if sess == nil {
		InternalServerError(w, "no session bound to request")
		return nil, false
	}
	return sess, true
}

// handleIDOrError parses the {id} URL parameter.
func handleIDOrError(w http.ResponseWriter, r *http.Request) (handle.ID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		BadRequest(w, "invalid handle id: "+raw)
		return 0, false
	}
	return handle.ID(id), true
}
