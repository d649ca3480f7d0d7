package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/guardfs/pkg/api/sessions"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	registry  *sessions.Registry
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. registry may be nil, in
// which case only process information is reported.
func NewHealthHandler(registry *sessions.Registry) *HealthHandler {
	return &HealthHandler{registry: registry, startedAt: time.Now()}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Result
	Service     string    `json:"service"`
	StartedAt   time.Time `json:"started_at"`
	Uptime      string    `json:"uptime"`
	UptimeSec   int64     `json:"uptime_sec"`
	Sessions    int       `json:"sessions"`
	Files       int       `json:"files"`
	OpenHandles int       `json:"open_handles"`
}

// Liveness handles GET /health.
//
// Returns 200 OK as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startedAt)
	resp := HealthResponse{
		Result:    OK,
		Service:   "guardfs",
		StartedAt: h.startedAt.UTC(),
		Uptime:    uptime.Round(time.Second).String(),
		UptimeSec: int64(uptime.Seconds()),
	}

	if h.registry != nil {
		space := h.registry.Store().Space()
		resp.Sessions = h.registry.Len()
		resp.Files = space.Files
		resp.OpenHandles = space.OpenHandles
	}

	WriteJSON(w, http.StatusOK, resp)
}
