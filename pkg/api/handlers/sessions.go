package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/guardfs/internal/logger"
	"github.com/marmos91/guardfs/pkg/api/sessions"
	"github.com/marmos91/guardfs/pkg/store"
	storeerrors "github.com/marmos91/guardfs/pkg/store/errors"
	"github.com/marmos91/guardfs/pkg/store/handle"
)

// SessionHandler manages session lifecycles and the status register.
type SessionHandler struct {
	registry *sessions.Registry
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *sessions.Registry) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	Result
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionListResponse lists registered sessions.
type SessionListResponse struct {
	Result
	Sessions []sessions.Info `json:"sessions"`
}

// StatusResponse reports a session's status register. Status, Code and
// Error describe the last operation the session performed.
type StatusResponse struct {
	Result
	SessionID   string      `json:"session_id"`
	Operations  uint64      `json:"operations"`
	OpenHandles []handle.ID `json:"open_handles"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsed    time.Time   `json:"last_used"`
}

// EndResponse is returned when a session ends.
type EndResponse struct {
	Result
	ClosedHandles int `json:"closed_handles"`
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, sess, err := h.registry.Create()
	if errors.Is(err, sessions.ErrLimit) {
		logger.WarnCtx(r.Context(), "Session limit reached", "sessions", h.registry.Len())
		TooManySessions(w)
		return
	}
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}

	logger.InfoCtx(r.Context(), "Session created", logger.SessionID(id))
	WriteJSON(w, http.StatusCreated, SessionResponse{
		Result:    OK,
		SessionID: id,
		CreatedAt: sess.Stats().CreatedAt.UTC(),
	})
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, SessionListResponse{
		Result:   OK,
		Sessions: h.registry.List(),
	})
}

// Status handles GET /api/v1/sessions/{id}/status.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.sessionOrNotFound(w, id)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, statusResponse(id, sess))
}

// ResetStatus handles DELETE /api/v1/sessions/{id}/status.
func (h *SessionHandler) ResetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.sessionOrNotFound(w, id)
	if !ok {
		return
	}

	sess.ResetStatus()
	logger.DebugCtx(r.Context(), "Status reset", logger.SessionID(id))
	WriteJSON(w, http.StatusOK, statusResponse(id, sess))
}

// End handles DELETE /api/v1/sessions/{id}. Handles the session still holds
// are closed.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	closed, err := h.registry.Remove(id)
	if err != nil {
		SessionNotFound(w, id)
		return
	}

	logger.InfoCtx(r.Context(), "Session ended", logger.SessionID(id), "closed_handles", closed)
	WriteJSON(w, http.StatusOK, EndResponse{Result: OK, ClosedHandles: closed})
}

func (h *SessionHandler) sessionOrNotFound(w http.ResponseWriter, id string) (*store.Session, bool) {
	sess, err := h.registry.Get(id)
	if err != nil {
		SessionNotFound(w, id)
		return nil, false
	}
	return sess, true
}

func statusResponse(id string, sess *store.Session) StatusResponse {
	stats := sess.Stats()
	res := ResultOf(sess.LastError())
	// The register is authoritative even for errors outside the store taxonomy.
	res.Status = stats.LastStatus
	if res.Status == storeerrors.StatusOK {
		res = OK
	}
	return StatusResponse{
		Result:      res,
		SessionID:   id,
		Operations:  stats.Operations,
		OpenHandles: stats.OpenHandles,
		CreatedAt:   stats.CreatedAt.UTC(),
		LastUsed:    stats.LastUsed.UTC(),
	}
}
