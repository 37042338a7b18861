package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kocoro-lab/Fathom/internal/citations"
	"github.com/Kocoro-lab/Fathom/internal/plan"
	"github.com/Kocoro-lab/Fathom/internal/search"
)

func searchServer(t *testing.T, results []search.Result) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
}

func embedAndQdrantServer(t *testing.T, upserts *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/embeddings/":
			var req struct {
				Texts []string `json:"texts"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			vecs := make([][]float64, len(req.Texts))
			for i := range vecs {
				vecs[i] = []float64{0.1, 0.2, 0.3}
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": vecs})
		case strings.HasSuffix(r.URL.Path, "/points") && r.Method == http.MethodPut:
			var req struct {
				Points []map[string]interface{} `json:"points"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if upserts != nil {
				*upserts = append(*upserts, req.Points...)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
}

func TestExecuteResearchTask_StagesAndIndexesSnippets(t *testing.T) {
	searchSrv := searchServer(t, []search.Result{
		{Title: "Widget history", URL: "https://a.com/1", Snippet: "widgets appeared in 1920"},
		{Title: "No snippet here", URL: "https://b.com/2", Snippet: ""},
		{Title: "Widget boom", URL: "https://c.com/3", Snippet: "sales tripled"},
	})
	defer searchSrv.Close()

	var upserts []map[string]interface{}
	backendSrv := embedAndQdrantServer(t, &upserts)
	defer backendSrv.Close()

	a := newTestActivities(t, backendSrv.URL, searchSrv.URL, backendSrv.URL)
	out, err := a.ExecuteResearchTask(context.Background(), ResearchTaskInput{
		Item:  plan.Item{ItemID: "research_1", Description: "history of widgets"},
		RunID: "run-1",
	})
	require.NoError(t, err)

	// Snippetless results are dropped; the rest are staged as blocks.
	blocks := strings.Split(out.Content, citations.ChapterDelimiter)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], "Source: https://a.com/1")
	assert.Contains(t, blocks[0], "Snippet: widgets appeared in 1920")
	assert.Contains(t, blocks[1], "Source: https://c.com/3")

	// Both usable snippets are indexed under the research task id.
	assert.Equal(t, 2, out.Indexed)
	require.Len(t, upserts, 2)
	payload := upserts[0]["payload"].(map[string]interface{})
	assert.Equal(t, "research_1", payload["research_task_id"])
	assert.Equal(t, "run-1", payload["run_id"])
}

func TestExecuteResearchTask_NoResultsYieldsSentinel(t *testing.T) {
	searchSrv := searchServer(t, nil)
	defer searchSrv.Close()
	backendSrv := embedAndQdrantServer(t, nil)
	defer backendSrv.Close()

	a := newTestActivities(t, backendSrv.URL, searchSrv.URL, backendSrv.URL)
	out, err := a.ExecuteResearchTask(context.Background(), ResearchTaskInput{
		Item: plan.Item{ItemID: "research_1", Description: "unfindable topic"},
	})
	require.NoError(t, err)

	assert.Equal(t, NoInformationFound, out.Content)
	assert.Zero(t, out.Indexed)
}

func TestExecuteResearchTask_IndexingFailureIsBestEffort(t *testing.T) {
	searchSrv := searchServer(t, []search.Result{
		{Title: "T", URL: "https://a.com", Snippet: "text"},
	})
	defer searchSrv.Close()

	brokenBackend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer brokenBackend.Close()

	a := newTestActivities(t, brokenBackend.URL, searchSrv.URL, brokenBackend.URL)
	out, err := a.ExecuteResearchTask(context.Background(), ResearchTaskInput{
		Item: plan.Item{ItemID: "research_1", Description: "topic"},
	})
	require.NoError(t, err)

	// Content survives even though nothing was indexed.
	assert.Contains(t, out.Content, "Source: https://a.com")
	assert.Zero(t, out.Indexed)
	assert.Contains(t, strings.Join(out.Log, "\n"), "indexing skipped")
}

func TestExecuteResearchTask_SearchFailureIsAnError(t *testing.T) {
	searchSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer searchSrv.Close()
	backendSrv := embedAndQdrantServer(t, nil)
	defer backendSrv.Close()

	a := newTestActivities(t, backendSrv.URL, searchSrv.URL, backendSrv.URL)
	_, err := a.ExecuteResearchTask(context.Background(), ResearchTaskInput{
		Item: plan.Item{ItemID: "research_1", Description: "topic"},
	})
	assert.Error(t, err)
}
