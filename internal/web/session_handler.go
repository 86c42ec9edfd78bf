package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aadhiVenkat/Automation-web-agent-ui/internal/session"
)

// SessionHandler exposes stop and listing endpoints for running agent
// sessions.
type SessionHandler struct {
	sessions *session.Registry
}

// NewSessionHandler creates the handler.
func NewSessionHandler(sessions *session.Registry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Stop handles POST /api/agent/stop/{id}.
func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.sessions.Stop(id) {
		writeError(w, http.StatusNotFound, "session_not_found", "No running session with id "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true, "session_id": id})
}

// StopAll handles POST /api/agent/stop-all.
func (h *SessionHandler) StopAll(w http.ResponseWriter, r *http.Request) {
	count := h.sessions.StopAll()
	writeJSON(w, http.StatusOK, map[string]any{"stopped": count})
}

// List handles GET /api/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	active := h.sessions.Active()
	if active == nil {
		active = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": active, "count": len(active)})
}
