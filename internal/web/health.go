package web

import (
	"net/http"
	"time"
)

// Version is the reported API version.
const Version = "0.1.0"

// HealthHandler serves GET /api/health.
type HealthHandler struct {
	startTime    time.Time
	sessionCount func() int
}

// NewHealthHandler creates a health handler recording the server start
// time. sessionCount may be nil.
func NewHealthHandler(sessionCount func() int) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), sessionCount: sessionCount}
}

type healthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	UptimeSecs int64  `json:"uptime_seconds"`
	Sessions   int    `json:"active_sessions"`
	Timestamp  string `json:"timestamp"`
}

// ServeHTTP reports service health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if h.sessionCount != nil {
		sessions = h.sessionCount()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "healthy",
		Version:    Version,
		UptimeSecs: int64(time.Since(h.startTime).Seconds()),
		Sessions:   sessions,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}
