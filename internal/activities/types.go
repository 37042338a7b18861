package activities

import (
	"github.com/Kocoro-lab/Fathom/internal/citations"
	"github.com/Kocoro-lab/Fathom/internal/plan"
)

// Message is a single conversational turn supplied by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GeneratePlanInput carries the user request into the planner.
type GeneratePlanInput struct {
	Query   string    `json:"query"`
	History []Message `json:"history,omitempty"`
}

// GeneratePlanResult returns the parsed plan. A malformed planner
// response is not an activity error: Items comes back empty and
// ParseError explains what went wrong, so the workflow can degrade
// instead of faulting.
type GeneratePlanResult struct {
	Items      []plan.Item `json:"items"`
	Outline    string      `json:"outline"`
	ParseError string      `json:"parse_error,omitempty"`
}

// ResearchTaskInput describes one research task dispatch.
type ResearchTaskInput struct {
	Item       plan.Item `json:"item"`
	RunID      string    `json:"run_id"`
	NumResults int       `json:"num_results"`
}

// ResearchTaskResult carries the gathered material back to the workflow.
type ResearchTaskResult struct {
	Content string   `json:"content"`
	Log     []string `json:"log,omitempty"`
	Indexed int      `json:"indexed"`
}

// SummarizeChapterInput condenses research material for one chapter topic.
type SummarizeChapterInput struct {
	Topic    string `json:"topic"`
	Material string `json:"material"`
}

type SummarizeChapterResult struct {
	Summary string `json:"summary"`
}

// RefreshOutlineInput rebuilds the report outline from the staged
// chapter summaries.
type RefreshOutlineInput struct {
	Query            string `json:"query"`
	ChapterSummaries string `json:"chapter_summaries"`
}

type RefreshOutlineResult struct {
	Outline string `json:"outline"`
}

// WritingTaskInput describes one writing task dispatch. Registry is the
// workflow's single live citation registry; the activity returns the
// updated copy in WritingTaskResult.
type WritingTaskInput struct {
	Item            plan.Item          `json:"item"`
	Query           string             `json:"query"`
	Outline         string             `json:"outline"`
	ChapterDigest   string             `json:"chapter_digest"`
	PreviousChapter string             `json:"previous_chapter"`
	Registry        citations.Registry `json:"registry"`
	MaxToolCalls    int                `json:"max_tool_calls"`
	RunID           string             `json:"run_id"`
}

type WritingTaskResult struct {
	Content   string             `json:"content"`
	Registry  citations.Registry `json:"registry"`
	Log       []string           `json:"log,omitempty"`
	ToolCalls int                `json:"tool_calls"`
}
