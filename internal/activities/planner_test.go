package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kocoro-lab/Fathom/internal/plan"
)

func completionServer(t *testing.T, output string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/agent/completions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"output": output})
	}))
}

func TestGeneratePlan_ParsesFencedOutput(t *testing.T) {
	planJSON := "```json\n{\"plan\":[{\"item_id\":\"research_1\",\"task_type\":\"RESEARCH\",\"description\":\"dig\",\"dependencies\":[]}],\"overall_outline\":\"# O\"}\n```"
	llmSrv := completionServer(t, planJSON)
	defer llmSrv.Close()

	a := newTestActivities(t, llmSrv.URL, llmSrv.URL, llmSrv.URL)
	out, err := a.GeneratePlan(context.Background(), GeneratePlanInput{Query: "widgets"})
	require.NoError(t, err)

	assert.Empty(t, out.ParseError)
	require.Len(t, out.Items, 1)
	assert.Equal(t, plan.TaskResearch, out.Items[0].TaskType)
	assert.Equal(t, "# O", out.Outline)
}

func TestGeneratePlan_MalformedOutputIsNotAnError(t *testing.T) {
	llmSrv := completionServer(t, "sorry, I cannot plan this")
	defer llmSrv.Close()

	a := newTestActivities(t, llmSrv.URL, llmSrv.URL, llmSrv.URL)
	out, err := a.GeneratePlan(context.Background(), GeneratePlanInput{Query: "widgets"})
	require.NoError(t, err)

	assert.Empty(t, out.Items)
	assert.NotEmpty(t, out.ParseError)
}

func TestGeneratePlan_TransportFailureIsAnError(t *testing.T) {
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer llmSrv.Close()

	a := newTestActivities(t, llmSrv.URL, llmSrv.URL, llmSrv.URL)
	_, err := a.GeneratePlan(context.Background(), GeneratePlanInput{Query: "widgets"})
	assert.Error(t, err)
}
