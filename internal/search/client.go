// Package search is the HTTP client for the web-search collaborator.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kocoro-lab/Fathom/internal/circuitbreaker"
	"github.com/Kocoro-lab/Fathom/internal/interceptors"
	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/tracing"
	"go.uber.org/zap"
)

// Result is one search hit. Snippet may be empty.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Config holds search service connection settings.
type Config struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	NumResults int           `mapstructure:"num_results"`
	// Requests per second against the search backend; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// Client talks to the search service with rate limiting and a circuit breaker.
type Client struct {
	cfg     Config
	httpw   *circuitbreaker.HTTPWrapper
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewClient creates a search service client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://search-service:8090"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.NumResults == 0 {
		cfg.NumResults = 5
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return &Client{
		cfg:     cfg,
		httpw:   circuitbreaker.NewHTTPWrapper(httpClient, "search", "search-service", logger),
		limiter: limiter,
		log:     logger,
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search issues one query and returns the ordered results. An empty slice
// means "no results", never an error.
func (c *Client) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	if numResults <= 0 {
		numResults = c.cfg.NumResults
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("search: rate limit wait: %w", err)
		}
	}

	url := c.cfg.BaseURL + "/search"
	start := time.Now()
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	buf, _ := json.Marshal(searchRequest{Query: query, NumResults: numResults})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.httpw.Do(req)
	if err != nil {
		ometrics.RecordSearch("error", 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("search: query failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		ometrics.RecordSearch("error", 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("search: status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		ometrics.RecordSearch("error", 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	ometrics.RecordSearch("ok", len(sr.Results), time.Since(start).Seconds())
	return sr.Results, nil
}
