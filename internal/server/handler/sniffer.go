package handler

import (
	"log/slog"
	"net/http"

	"github.com/albionflip/flipperd/internal/domain"
)

// IngestionController defines the lifecycle operations the sniffer handler
// requires.
type IngestionController interface {
	Start() error
	Stop() error
	Status() domain.Status
}

// SnifferHandler starts and stops the ingestion pipeline over HTTP.
type SnifferHandler struct {
	ctrl   IngestionController
	logger *slog.Logger
}

// NewSnifferHandler creates a SnifferHandler over the given controller.
func NewSnifferHandler(ctrl IngestionController, logger *slog.Logger) *SnifferHandler {
	return &SnifferHandler{ctrl: ctrl, logger: logger}
}

// Start launches ingestion. Starting an already running pipeline is a no-op
// and still reports success.
// POST /api/sniffer/start
func (h *SnifferHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Start(); err != nil {
		h.logger.WarnContext(r.Context(), "sniffer start failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// Stop halts ingestion. Stopping an already stopped pipeline is a no-op.
// POST /api/sniffer/stop
func (h *SnifferHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Stop(); err != nil {
		h.logger.ErrorContext(r.Context(), "sniffer stop failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}
