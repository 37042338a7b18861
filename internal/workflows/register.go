package workflows

import (
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Kocoro-lab/Fathom/internal/activities"
)

// Register wires the report workflow and its activities onto a worker.
func Register(w worker.Worker, acts *activities.Activities) {
	w.RegisterWorkflowWithOptions(ReportWorkflow, workflow.RegisterOptions{Name: "ReportWorkflow"})
	w.RegisterActivity(acts)
}
