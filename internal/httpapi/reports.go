// Package httpapi is the HTTP surface of the report engine.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/workflows"
)

// ReportRunner starts a report run and blocks for its result.
type ReportRunner interface {
	Run(ctx context.Context, query string, history []activities.Message) workflows.ReportResult
}

// ReportsHandler serves POST /api/v1/reports.
type ReportsHandler struct {
	runner ReportRunner
	logger *zap.Logger
}

func NewReportsHandler(runner ReportRunner, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportsHandler{runner: runner, logger: logger}
}

// RegisterRoutes mounts the reports API on mux.
func (h *ReportsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/reports", h.handleCreate)
}

type createReportRequest struct {
	Query   string               `json:"query"`
	History []activities.Message `json:"history,omitempty"`
}

func (h *ReportsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	h.logger.Info("Report requested", zap.Int("query_len", len(req.Query)))
	result := h.runner.Run(r.Context(), req.Query, req.History)

	w.Header().Set("Content-Type", "application/json")
	if !result.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode report response", zap.Error(err))
	}
}
