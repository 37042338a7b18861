package activities

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/plan"
)

const plannerInstructions = `You are the master planner for a deep-research report.
Break the user's request into an ordered plan of RESEARCH and WRITING tasks.
Every WRITING task covers one chapter of the report and lists the item_ids of
the RESEARCH tasks it builds on in its dependencies.

Respond with JSON only, in this shape:
{
  "plan": [
    {"item_id": "research_1", "task_type": "RESEARCH", "description": "...", "dependencies": []},
    {"item_id": "writing_1", "task_type": "WRITING", "description": "...", "dependencies": ["research_1"]}
  ],
  "overall_outline": "markdown outline of the report"
}`

// GeneratePlan asks the planner model for a task plan. Transport failures are
// returned as activity errors; a response the parser cannot decode is reported
// through ParseError with an empty plan so the run degrades instead of dying.
func (a *Activities) GeneratePlan(ctx context.Context, in GeneratePlanInput) (GeneratePlanResult, error) {
	vars := map[string]string{"query": in.Query}
	if len(in.History) > 0 {
		var b strings.Builder
		for _, m := range in.History {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		vars["history"] = b.String()
	}

	res, err := a.llm.Complete(ctx, llmCompletion("master-planner", plannerInstructions, vars, "large"))
	if err != nil {
		return GeneratePlanResult{}, fmt.Errorf("planner call failed: %w", err)
	}

	items, outline, err := plan.ParsePlannerOutput(res.Output)
	if err != nil {
		a.logger.Warn("Planner output unparseable, degrading to empty plan",
			zap.Error(err),
			zap.Int("output_len", len(res.Output)),
		)
		return GeneratePlanResult{ParseError: err.Error()}, nil
	}

	perType := map[plan.TaskType]int{}
	for _, it := range items {
		perType[it.TaskType]++
	}
	for tt, n := range perType {
		ometrics.PlanItems.WithLabelValues(string(tt)).Observe(float64(n))
	}
	a.logger.Info("Plan generated",
		zap.Int("items", len(items)),
		zap.Int("research", len(plan.ResearchIDs(items))),
		zap.String("model", res.ModelUsed),
	)
	return GeneratePlanResult{Items: items, Outline: outline}, nil
}
