package activities

import (
	"context"
	"fmt"
)

const summarizerInstructions = `You are a research analyst. Condense the research
material below into a focused briefing for the chapter topic. Preserve every
source URL that appears in the material; drop repetition and noise. Respond
with the briefing text only.`

const outlineInstructions = `You are the editor of a deep-research report. Given
the user's request and the summaries of the chapters that have been drafted,
produce the final markdown outline of the report. Respond with the outline only.`

// SummarizeChapter condenses the raw research material staged for one writing
// item into a briefing the writer works from.
func (a *Activities) SummarizeChapter(ctx context.Context, in SummarizeChapterInput) (SummarizeChapterResult, error) {
	res, err := a.llm.Complete(ctx, llmCompletion("chapter-summarizer", summarizerInstructions, map[string]string{
		"topic":    in.Topic,
		"material": in.Material,
	}, ""))
	if err != nil {
		return SummarizeChapterResult{}, fmt.Errorf("summarize %q failed: %w", in.Topic, err)
	}
	return SummarizeChapterResult{Summary: res.Output}, nil
}

// RefreshOutline rebuilds the report outline after research completes, so the
// writers share one authoritative structure.
func (a *Activities) RefreshOutline(ctx context.Context, in RefreshOutlineInput) (RefreshOutlineResult, error) {
	res, err := a.llm.Complete(ctx, llmCompletion("outline-editor", outlineInstructions, map[string]string{
		"query":             in.Query,
		"chapter_summaries": in.ChapterSummaries,
	}, ""))
	if err != nil {
		return RefreshOutlineResult{}, fmt.Errorf("outline refresh failed: %w", err)
	}
	return RefreshOutlineResult{Outline: res.Output}, nil
}
