// Package workflows contains the report run supervisor: a Temporal workflow
// driving the plan through planning, research, summarization, writing, and
// assembly with exactly one task in flight at a time.
package workflows

import (
	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/citations"
	"github.com/Kocoro-lab/Fathom/internal/plan"
)

// ReportInput starts one report run. The run knobs are snapshotted at
// submission time so a config reload never changes a run mid-flight.
type ReportInput struct {
	Query           string               `json:"query"`
	History         []activities.Message `json:"history,omitempty"`
	MaxAttempts     int                  `json:"max_attempts,omitempty"`
	MaxToolCalls    int                  `json:"max_tool_calls,omitempty"`
	SearchResults   int                  `json:"search_results,omitempty"`
	ActivityTimeout int                  `json:"activity_timeout_seconds,omitempty"`
}

// RunError records one contained failure or structural problem. The run keeps
// going; callers inspect Errors on the result to see what degraded.
type RunError struct {
	Node    string `json:"node"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

// ReportResult is the full outcome of a run: the assembled report plus the
// final plan snapshot for inspection.
type ReportResult struct {
	Success bool              `json:"success"`
	Report  string            `json:"report"`
	Sources []citations.Entry `json:"sources,omitempty"`
	Outline string            `json:"outline,omitempty"`
	Plan    []plan.Item       `json:"plan,omitempty"`
	Errors  []RunError        `json:"errors,omitempty"`
}

func (in *ReportInput) applyDefaults() {
	if in.MaxAttempts <= 0 {
		in.MaxAttempts = 3
	}
	if in.MaxToolCalls <= 0 {
		in.MaxToolCalls = 7
	}
	if in.SearchResults <= 0 {
		in.SearchResults = 5
	}
	if in.ActivityTimeout <= 0 {
		in.ActivityTimeout = 300
	}
}
