// Package llm is the HTTP client for the text-generation collaborator.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Kocoro-lab/Fathom/internal/interceptors"
	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/tracing"
)

// Config holds LLM service connection settings.
type Config struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	ModelTier string        `mapstructure:"model_tier"`
}

// Client talks to the LLM service over HTTP.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates an LLM service client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://llm-service:8000"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.ModelTier == "" {
		cfg.ModelTier = "medium"
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: interceptors.NewWorkflowHTTPRoundTripper(nil),
		},
	}
}

// CompletionRequest is a structured prompt: instructions plus bound variables.
type CompletionRequest struct {
	AgentID      string            `json:"agent_id"`
	Instructions string            `json:"instructions"`
	Variables    map[string]string `json:"variables,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`
	ModelTier    string            `json:"model_tier,omitempty"`
}

// CompletionResult is the generated text plus usage metadata.
type CompletionResult struct {
	Output       string `json:"output"`
	ModelUsed    string `json:"model_used"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Complete generates text for a structured prompt.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if req.ModelTier == "" {
		req.ModelTier = c.cfg.ModelTier
	}
	var out CompletionResult
	if err := c.post(ctx, "/agent/completions", req.AgentID, req, &out); err != nil {
		return CompletionResult{}, err
	}
	if out.Output == "" {
		return CompletionResult{}, fmt.Errorf("llm: completion returned empty output")
	}
	return out, nil
}

// StepTurn records a prior reason-act turn in a tool-augmented exchange.
type StepTurn struct {
	Iteration int    `json:"iteration"`
	Action    string `json:"action"`
	Tool      string `json:"tool,omitempty"`
	Result    string `json:"result,omitempty"`
}

// ToolDef describes a capability offered to the model for one step.
type ToolDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StepRequest asks the model for its next action in tool-augmented mode.
type StepRequest struct {
	AgentID       string            `json:"agent_id"`
	Task          string            `json:"task"`
	Iteration     int               `json:"iteration"`
	MaxIterations int               `json:"max_iterations"`
	Context       map[string]string `json:"context,omitempty"`
	History       []StepTurn        `json:"history,omitempty"`
	Tools         []ToolDef         `json:"tools,omitempty"`
	ModelTier     string            `json:"model_tier,omitempty"`
}

// Step actions.
const (
	ActionToolCall = "tool_call"
	ActionDone     = "done"
)

// StepResult is the model's decision for one iteration.
type StepResult struct {
	Action       string            `json:"action"`
	Tool         string            `json:"tool,omitempty"`
	ToolParams   map[string]string `json:"tool_params,omitempty"`
	Response     string            `json:"response,omitempty"`
	TokensUsed   int               `json:"tokens_used,omitempty"`
	ModelUsed    string            `json:"model_used,omitempty"`
	InputTokens  int               `json:"input_tokens,omitempty"`
	OutputTokens int               `json:"output_tokens,omitempty"`
}

// Step performs one reason-act iteration of a tool-augmented agent.
func (c *Client) Step(ctx context.Context, req StepRequest) (StepResult, error) {
	if req.ModelTier == "" {
		req.ModelTier = c.cfg.ModelTier
	}
	var out StepResult
	if err := c.post(ctx, "/agent/step", req.AgentID, req, &out); err != nil {
		return StepResult{}, err
	}
	if out.Action == "" {
		return StepResult{}, fmt.Errorf("llm: step returned no action")
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path, agentID string, body, out interface{}) error {
	url := c.cfg.BaseURL + path
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	start := time.Now()
	ctx, span := tracing.StartHTTPSpan(ctx, http.MethodPost, url)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if agentID != "" {
		req.Header.Set("X-Agent-ID", agentID)
	}
	tracing.InjectTraceparent(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		ometrics.RecordLLMCall(path, "error", time.Since(start).Seconds())
		return fmt.Errorf("llm: call %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ometrics.RecordLLMCall(path, "error", time.Since(start).Seconds())
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llm: %s returned status %d: %s", path, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		ometrics.RecordLLMCall(path, "error", time.Since(start).Seconds())
		return fmt.Errorf("llm: decode %s response: %w", path, err)
	}
	ometrics.RecordLLMCall(path, "ok", time.Since(start).Seconds())
	return nil
}
