package handler

import (
	"net/http"

	"github.com/albionflip/flipperd/internal/domain"
)

// StatusProvider defines the status snapshot the handler requires.
type StatusProvider interface {
	Status() domain.Status
}

// StatusHandler serves the live ingestion status for the dashboard.
type StatusHandler struct {
	provider StatusProvider
}

// NewStatusHandler creates a StatusHandler over the given provider.
func NewStatusHandler(provider StatusProvider) *StatusHandler {
	return &StatusHandler{provider: provider}
}

// GetStatus responds with the current ingestion status.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.provider.Status())
}
