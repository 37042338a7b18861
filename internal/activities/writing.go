package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/llm"
)

const writerTask = `Write the report chapter described below in markdown.
Ground every claim in retrieved material and mark each claim inline with
[ref:<source url>] immediately after it. Use the knowledge_search tool to pull
the material you need before writing. When the chapter is finished, return it
as your final response.`

var writerTools = []llm.ToolDef{
	{
		Name:        "knowledge_search",
		Description: "Retrieve indexed research material relevant to a query. Params: query.",
	},
}

// ExecuteWritingTask drafts one chapter with a tool-augmented agent loop. The
// model may call knowledge_search, which is served locally against the vector
// store scoped to the chapter's research dependencies. Inline [ref:url]
// markers in the draft are rewritten into numbered citations against the
// run's shared registry, which is returned updated.
func (a *Activities) ExecuteWritingTask(ctx context.Context, in WritingTaskInput) (WritingTaskResult, error) {
	start := time.Now()
	if len(in.Item.Dependencies) == 0 {
		a.logger.Warn("Writing task has no research dependencies, retrieval is unscoped",
			zap.String("item_id", in.Item.ItemID),
			zap.String("run_id", in.RunID),
		)
	}

	stepCtx := map[string]string{
		"chapter":          in.Item.Description,
		"user_query":       in.Query,
		"report_outline":   in.Outline,
		"chapter_digest":   in.ChapterDigest,
		"previous_chapter": in.PreviousChapter,
	}

	var history []llm.StepTurn
	var log []string
	var draft string
	toolCalls := 0
	done := false

	for iter := 1; iter <= in.MaxToolCalls && !done; iter++ {
		step, err := a.llm.Step(ctx, llm.StepRequest{
			AgentID:       "chapter-writer",
			Task:          writerTask,
			Iteration:     iter,
			MaxIterations: in.MaxToolCalls,
			Context:       stepCtx,
			History:       history,
			Tools:         writerTools,
		})
		if err != nil {
			ometrics.TasksExecuted.WithLabelValues("writing", "error").Inc()
			return WritingTaskResult{}, fmt.Errorf("writer step %d for %q failed: %w", iter, in.Item.ItemID, err)
		}

		switch step.Action {
		case llm.ActionDone:
			draft = step.Response
			done = true
		case llm.ActionToolCall:
			toolCalls++
			result := a.runWriterTool(ctx, step, in.Item.Dependencies)
			log = append(log, fmt.Sprintf("tool %s(%s)", step.Tool, step.ToolParams["query"]))
			history = append(history, llm.StepTurn{
				Iteration: iter,
				Action:    step.Action,
				Tool:      step.Tool,
				Result:    result,
			})
		default:
			ometrics.TasksExecuted.WithLabelValues("writing", "error").Inc()
			return WritingTaskResult{}, fmt.Errorf("writer returned unknown action %q for %q", step.Action, in.Item.ItemID)
		}
	}

	if !done {
		// Iteration budget spent. Give the model one tool-free step to
		// finish from what it has gathered.
		log = append(log, fmt.Sprintf("tool budget of %d exhausted, forcing final draft", in.MaxToolCalls))
		step, err := a.llm.Step(ctx, llm.StepRequest{
			AgentID:       "chapter-writer",
			Task:          writerTask,
			Iteration:     in.MaxToolCalls + 1,
			MaxIterations: in.MaxToolCalls,
			Context:       stepCtx,
			History:       history,
		})
		if err != nil || step.Action != llm.ActionDone {
			ometrics.TasksExecuted.WithLabelValues("writing", "error").Inc()
			if err == nil {
				err = fmt.Errorf("writer did not finish within %d tool calls", in.MaxToolCalls)
			}
			return WritingTaskResult{}, fmt.Errorf("writer for %q: %w", in.Item.ItemID, err)
		}
		draft = step.Response
	}

	reg := in.Registry
	before := len(reg.Entries)
	content := reg.Rewrite(draft, func(url string) (string, error) {
		return a.vector.LookupTitle(ctx, url)
	})
	if assigned := len(reg.Entries) - before; assigned > 0 {
		ometrics.CitationsAssigned.Add(float64(assigned))
	}

	ometrics.TasksExecuted.WithLabelValues("writing", "ok").Inc()
	ometrics.TaskDuration.WithLabelValues("writing").Observe(time.Since(start).Seconds())
	a.logger.Info("Chapter drafted",
		zap.String("item_id", in.Item.ItemID),
		zap.Int("tool_calls", toolCalls),
		zap.Int("sources", len(reg.Entries)),
	)
	return WritingTaskResult{
		Content:   content,
		Registry:  reg,
		Log:       log,
		ToolCalls: toolCalls,
	}, nil
}

// runWriterTool executes one tool call locally. Unknown tools and retrieval
// failures come back as error text inside the turn so the model can adapt.
func (a *Activities) runWriterTool(ctx context.Context, step llm.StepResult, scope []string) string {
	if step.Tool != "knowledge_search" {
		return fmt.Sprintf("error: unknown tool %q", step.Tool)
	}
	query := step.ToolParams["query"]
	if query == "" {
		return "error: knowledge_search needs a query param"
	}

	vector, err := a.embed.GenerateEmbedding(ctx, query, "")
	if err != nil {
		return "error: embedding query failed: " + err.Error()
	}
	hits, err := a.vector.QueryScoped(ctx, vector, scope, 0)
	if err != nil {
		return "error: retrieval failed: " + err.Error()
	}
	if len(hits) == 0 {
		return "no indexed material matched the query"
	}

	var b strings.Builder
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Source: %s\nTitle: %s\n%s", h.URL, h.Title, h.Text)
	}
	return b.String()
}
