package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/citations"
	"github.com/Kocoro-lab/Fathom/internal/plan"
)

// openingChapterContext is handed to the first chapter's writer, which has no
// previous chapter to continue from.
const openingChapterContext = "This is the opening chapter of the report."

// ReportWorkflow supervises one report run end to end. Activities never
// auto-retry; the dispatch loops own retries through the per-item attempt
// budget, and task failures are contained in the plan instead of failing the
// run. Only a planner transport failure or a failed outline refresh aborts.
func ReportWorkflow(ctx workflow.Context, input ReportInput) (ReportResult, error) {
	input.applyDefaults()
	logger := workflow.GetLogger(ctx)
	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Duration(input.ActivityTimeout) * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var result ReportResult
	logger.Info("Report run started", "run_id", runID, "query", input.Query)

	// Planning.
	var planned activities.GeneratePlanResult
	err := workflow.ExecuteActivity(ctx, "GeneratePlan", activities.GeneratePlanInput{
		Query:   input.Query,
		History: input.History,
	}).Get(ctx, &planned)
	if err != nil {
		return result, fmt.Errorf("planning failed: %w", err)
	}
	if planned.ParseError != "" {
		result.Errors = append(result.Errors, RunError{
			Node:    "planner",
			Message: "plan output unparseable: " + planned.ParseError,
		})
	}

	items, dropped := plan.Validate(planned.Items)
	for _, msg := range dropped {
		result.Errors = append(result.Errors, RunError{Node: "plan_validator", Message: msg})
	}
	outline := planned.Outline
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = plan.StatusPending
		}
	}
	plan.MarkReady(items, input.MaxAttempts)

	// Research dispatch loop: plan order, one task in flight, failures
	// contained and retried up to the attempt budget.
	for {
		idx := plan.NextEligible(items, plan.TaskResearch, input.MaxAttempts)
		if idx < 0 {
			break
		}
		items = plan.CloneItems(items)
		it := &items[idx]
		it.Status = plan.StatusInProgress
		it.AttemptCount++

		var res activities.ResearchTaskResult
		err := workflow.ExecuteActivity(ctx, "ExecuteResearchTask", activities.ResearchTaskInput{
			Item:       *it,
			RunID:      runID,
			NumResults: input.SearchResults,
		}).Get(ctx, &res)
		if err != nil {
			it.Status = plan.StatusFailed
			it.ExecutionLog = append(it.ExecutionLog, fmt.Sprintf("attempt %d failed: %v", it.AttemptCount, err))
			result.Errors = append(result.Errors, RunError{
				Node:    "research_executor",
				ItemID:  it.ItemID,
				Message: err.Error(),
			})
			logger.Warn("Research task failed", "item_id", it.ItemID, "attempt", it.AttemptCount)
		} else {
			it.Status = plan.StatusCompleted
			it.Content = res.Content
			it.ExecutionLog = append(it.ExecutionLog, res.Log...)
		}
		plan.MarkReady(items, input.MaxAttempts)
	}

	// Stage chapter material: for each writing item, gather its research
	// dependencies' content and condense it. A failed summarization falls
	// back to the raw concatenation; a chapter with no material gets a stub.
	items = plan.CloneItems(items)
	for i := range items {
		if items[i].TaskType != plan.TaskWriting {
			continue
		}
		var parts []string
		for _, dep := range items[i].Dependencies {
			if d, _ := plan.Find(items, dep); d != nil && d.Content != "" {
				parts = append(parts, fmt.Sprintf("Research task %q:\n%s", d.Description, d.Content))
			}
		}
		if len(parts) == 0 {
			items[i].Content = fmt.Sprintf(
				"This chapter addresses %q, but no relevant research material was found.",
				items[i].Description,
			)
			continue
		}
		material := strings.Join(parts, citations.ChapterDelimiter)
		var sum activities.SummarizeChapterResult
		err := workflow.ExecuteActivity(ctx, "SummarizeChapter", activities.SummarizeChapterInput{
			Topic:    items[i].Description,
			Material: material,
		}).Get(ctx, &sum)
		if err != nil {
			items[i].Content = material
			result.Errors = append(result.Errors, RunError{
				Node:    "plan_summarizer",
				ItemID:  items[i].ItemID,
				Message: err.Error(),
			})
		} else {
			items[i].Content = sum.Summary
		}
	}

	// Outline refresh. Without a coherent structure the writers would
	// drift apart, so this failure aborts the run.
	if len(plan.WritingItems(items)) > 0 {
		var refreshed activities.RefreshOutlineResult
		err := workflow.ExecuteActivity(ctx, "RefreshOutline", activities.RefreshOutlineInput{
			Query:            input.Query,
			ChapterSummaries: chapterDigest(items),
		}).Get(ctx, &refreshed)
		if err != nil {
			result.Outline = outline
			result.Plan = items
			return result, fmt.Errorf("outline refresh failed: %w", err)
		}
		outline = refreshed.Outline
	}

	// Writing dispatch loop. The citation registry is threaded through
	// every writing activity so reference numbers stay dense and stable
	// across chapters.
	registry := *citations.NewRegistry()
	for {
		idx := plan.NextEligible(items, plan.TaskWriting, input.MaxAttempts)
		if idx < 0 {
			break
		}
		items = plan.CloneItems(items)
		it := &items[idx]
		it.Status = plan.StatusInProgress
		it.AttemptCount++

		var res activities.WritingTaskResult
		err := workflow.ExecuteActivity(ctx, "ExecuteWritingTask", activities.WritingTaskInput{
			Item:            *it,
			Query:           input.Query,
			Outline:         outline,
			ChapterDigest:   chapterDigest(items),
			PreviousChapter: previousChapter(items, idx),
			Registry:        registry,
			MaxToolCalls:    input.MaxToolCalls,
			RunID:           runID,
		}).Get(ctx, &res)
		if err != nil {
			it.Status = plan.StatusFailed
			it.ExecutionLog = append(it.ExecutionLog, fmt.Sprintf("attempt %d failed: %v", it.AttemptCount, err))
			result.Errors = append(result.Errors, RunError{
				Node:    "writing_executor",
				ItemID:  it.ItemID,
				Message: err.Error(),
			})
			logger.Warn("Writing task failed", "item_id", it.ItemID, "attempt", it.AttemptCount)
		} else {
			it.Status = plan.StatusCompleted
			it.Content = res.Content
			it.ExecutionLog = append(it.ExecutionLog, res.Log...)
			registry = res.Registry
		}
		plan.MarkReady(items, input.MaxAttempts)
	}

	// Assembly: completed chapters in plan order plus the reference list.
	var chapters []string
	for _, it := range items {
		if it.TaskType == plan.TaskWriting && it.Status == plan.StatusCompleted {
			chapters = append(chapters, it.Content)
		}
	}
	result.Success = true
	result.Report = citations.AssembleReport(chapters, registry.Sources())
	result.Sources = registry.Sources()
	result.Outline = outline
	result.Plan = items

	logger.Info("Report run finished",
		"run_id", runID,
		"chapters", len(chapters),
		"sources", len(result.Sources),
		"contained_errors", len(result.Errors),
	)
	return result, nil
}

// chapterDigest renders the current chapter goals and their staged content so
// each writer sees where its chapter sits in the whole report.
func chapterDigest(items []plan.Item) string {
	var b strings.Builder
	for _, it := range plan.WritingItems(items) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Chapter goal: %s\nSummary: %s", it.Description, it.Content)
	}
	return b.String()
}

// previousChapter returns the most recently completed chapter before idx in
// plan order, or the opening-chapter placeholder.
func previousChapter(items []plan.Item, idx int) string {
	prev := openingChapterContext
	for i := 0; i < idx; i++ {
		if items[i].TaskType == plan.TaskWriting && items[i].Status == plan.StatusCompleted {
			prev = items[i].Content
		}
	}
	return prev
}
