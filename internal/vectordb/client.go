// Package vectordb is a minimal Qdrant HTTP client for the shared research
// index: ingestion of search-result chunks, metadata-scoped retrieval for
// writing tasks, and source title lookup for the citation registry.
package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Fathom/internal/circuitbreaker"
	"github.com/Kocoro-lab/Fathom/internal/interceptors"
	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/tracing"
)

// Client is a minimal Qdrant HTTP client.
type Client struct {
	cfg   Config
	base  string
	httpw *circuitbreaker.HTTPWrapper
	log   *zap.Logger
}

// BaseURL returns the Qdrant HTTP endpoint, for health checks.
func (c *Client) BaseURL() string { return c.base }

// NewClient creates a Qdrant client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 6333
	}
	if cfg.Collection == "" {
		cfg.Collection = "research_chunks"
	}
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	return &Client{
		cfg:   cfg,
		base:  fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		httpw: circuitbreaker.NewHTTPWrapper(httpClient, "qdrant", "vectordb", logger),
		log:   logger,
	}
}

type upsertPoint struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantQueryRequest struct {
	Query          []float32              `json:"query"`
	Limit          int                    `json:"limit"`
	ScoreThreshold *float64               `json:"score_threshold,omitempty"`
	WithPayload    bool                   `json:"with_payload"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
}

type qdrantPoint struct {
	ID      interface{}            `json:"id"`
	Score   float64                `json:"score"`
	Payload map[string]interface{} `json:"payload"`
}

type qdrantQueryResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

type qdrantScrollResponse struct {
	Result struct {
		Points []qdrantPoint `json:"points"`
	} `json:"result"`
	Status string `json:"status"`
}

// UpsertChunks inserts embedded chunks into the research collection.
func (c *Client) UpsertChunks(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectordb: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]upsertPoint, len(chunks))
	for i, ch := range chunks {
		points[i] = upsertPoint{
			ID:     uuid.New().String(),
			Vector: vectors[i],
			Payload: map[string]interface{}{
				"research_task_id": ch.ResearchTaskID,
				"run_id":           ch.RunID,
				"url":              ch.URL,
				"title":            ch.Title,
				"text":             ch.Text,
			},
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPut, url)
	defer span.End()

	start := time.Now()
	buf, _ := json.Marshal(map[string]interface{}{"points": points})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		ometrics.RecordVectorOp("upsert", "error", time.Since(start).Seconds())
		return fmt.Errorf("vectordb: upsert failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ometrics.RecordVectorOp("upsert", "error", time.Since(start).Seconds())
		return fmt.Errorf("vectordb: upsert status %d", resp.StatusCode)
	}
	ometrics.RecordVectorOp("upsert", "ok", time.Since(start).Seconds())
	return nil
}

// QueryScoped performs semantic search over the index. When taskIDs is
// non-empty the search is filtered to chunks tagged with any of those
// research task ids; otherwise the whole collection is searched.
func (c *Client) QueryScoped(ctx context.Context, vector []float32, taskIDs []string, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		limit = c.cfg.TopK
	}

	var filter map[string]interface{}
	if len(taskIDs) > 0 {
		values := make([]interface{}, len(taskIDs))
		for i, id := range taskIDs {
			values[i] = id
		}
		filter = map[string]interface{}{
			"must": []map[string]interface{}{
				{
					"key":   "research_task_id",
					"match": map[string]interface{}{"any": values},
				},
			},
		}
	}

	var thr *float64
	if c.cfg.Threshold > 0 {
		t := c.cfg.Threshold
		thr = &t
	}

	url := fmt.Sprintf("%s/collections/%s/points/query", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	start := time.Now()
	buf, _ := json.Marshal(qdrantQueryRequest{
		Query:          vector,
		Limit:          limit,
		ScoreThreshold: thr,
		WithPayload:    true,
		Filter:         filter,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		ometrics.RecordVectorOp("query", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("vectordb: query failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.RecordVectorOp("query", "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("vectordb: query status %d", resp.StatusCode)
	}

	var qr qdrantQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		ometrics.RecordVectorOp("query", "error", time.Since(start).Seconds())
		return nil, err
	}
	ometrics.RecordVectorOp("query", "ok", time.Since(start).Seconds())

	out := make([]ScoredChunk, 0, len(qr.Result.Points))
	for _, p := range qr.Result.Points {
		out = append(out, ScoredChunk{Chunk: chunkFromPayload(p.Payload), Score: p.Score})
	}
	return out, nil
}

// LookupTitle returns the display title of a previously ingested source by
// its URL, or an empty string when the source is unknown.
func (c *Client) LookupTitle(ctx context.Context, sourceURL string) (string, error) {
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.base, c.cfg.Collection)
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	start := time.Now()
	body := map[string]interface{}{
		"limit":        1,
		"with_payload": true,
		"filter": map[string]interface{}{
			"must": []map[string]interface{}{
				{"key": "url", "match": map[string]interface{}{"value": sourceURL}},
			},
		},
	}
	buf, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		ometrics.RecordVectorOp("scroll", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("vectordb: scroll failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.RecordVectorOp("scroll", "error", time.Since(start).Seconds())
		return "", fmt.Errorf("vectordb: scroll status %d", resp.StatusCode)
	}

	var sr qdrantScrollResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		ometrics.RecordVectorOp("scroll", "error", time.Since(start).Seconds())
		return "", err
	}
	ometrics.RecordVectorOp("scroll", "ok", time.Since(start).Seconds())

	if len(sr.Result.Points) == 0 {
		return "", nil
	}
	if t, ok := sr.Result.Points[0].Payload["title"].(string); ok {
		return t, nil
	}
	return "", nil
}

func chunkFromPayload(payload map[string]interface{}) Chunk {
	str := func(key string) string {
		if v, ok := payload[key].(string); ok {
			return v
		}
		return ""
	}
	return Chunk{
		ResearchTaskID: str("research_task_id"),
		RunID:          str("run_id"),
		URL:            str("url"),
		Title:          str("title"),
		Text:           str("text"),
	}
}
