package activities

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Kocoro-lab/Fathom/internal/config"
	"github.com/Kocoro-lab/Fathom/internal/embeddings"
	"github.com/Kocoro-lab/Fathom/internal/llm"
	"github.com/Kocoro-lab/Fathom/internal/search"
	"github.com/Kocoro-lab/Fathom/internal/vectordb"
)

// newTestActivities wires an Activities instance against httptest servers.
func newTestActivities(t *testing.T, llmURL, searchURL, qdrantURL string) *Activities {
	t.Helper()

	host, port := splitHostPort(t, qdrantURL)
	return NewActivities(
		llm.NewClient(llm.Config{BaseURL: llmURL, Timeout: 5 * time.Second}),
		search.NewClient(search.Config{BaseURL: searchURL, Timeout: 5 * time.Second}, zaptest.NewLogger(t)),
		vectordb.NewClient(vectordb.Config{Host: host, Port: port, Timeout: 5 * time.Second}, zaptest.NewLogger(t)),
		embeddings.NewService(embeddings.Config{BaseURL: llmURL, Timeout: 5 * time.Second}, nil),
		config.RunConfig{MaxAttempts: 3, MaxToolCalls: 7, SearchResults: 5},
		zaptest.NewLogger(t),
	)
}

func splitHostPort(t *testing.T, raw string) (string, int) {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return u.Hostname(), port
}
