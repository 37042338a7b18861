package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/workflows"
)

type stubRunner struct {
	lastQuery   string
	lastHistory []activities.Message
	result      workflows.ReportResult
}

func (s *stubRunner) Run(ctx context.Context, query string, history []activities.Message) workflows.ReportResult {
	s.lastQuery = query
	s.lastHistory = history
	return s.result
}

func newTestMux(runner ReportRunner, t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	NewReportsHandler(runner, zaptest.NewLogger(t)).RegisterRoutes(mux)
	return mux
}

func TestCreateReport(t *testing.T) {
	runner := &stubRunner{result: workflows.ReportResult{Success: true, Report: "# Widgets"}}
	mux := newTestMux(runner, t)

	body := `{"query":"widgets","history":[{"role":"user","content":"earlier question"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "widgets", runner.lastQuery)
	require.Len(t, runner.lastHistory, 1)
	assert.Equal(t, "user", runner.lastHistory[0].Role)

	var result workflows.ReportResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "# Widgets", result.Report)
}

func TestCreateReport_HardFaultIs502(t *testing.T) {
	runner := &stubRunner{result: workflows.ReportResult{
		Success: false,
		Errors:  []workflows.RunError{{Node: "run", Message: "planning failed"}},
	}}
	mux := newTestMux(runner, t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(`{"query":"widgets"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var result workflows.ReportResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.False(t, result.Success)
}

func TestCreateReport_EmptyQueryRejected(t *testing.T) {
	mux := newTestMux(&stubRunner{}, t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReport_BadJSONRejected(t *testing.T) {
	mux := newTestMux(&stubRunner{}, t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReport_GetNotAllowed(t *testing.T) {
	mux := newTestMux(&stubRunner{}, t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
