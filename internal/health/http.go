package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// HTTPHandler exposes health endpoints on the admin mux.
type HTTPHandler struct {
	manager *Manager
	logger  *zap.Logger
}

// NewHTTPHandler creates the health HTTP handler.
func NewHTTPHandler(m *Manager, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{manager: m, logger: logger}
}

// RegisterRoutes registers /health and /readiness on the mux.
func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/readiness", h.handleHealth)
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	statuses := h.manager.Statuses()
	code := http.StatusOK
	if !h.manager.Healthy() {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"healthy": code == http.StatusOK,
		"checks":  statuses,
	}); err != nil {
		h.logger.Warn("Failed to write health response", zap.Error(err))
	}
}
