// Package server exposes the report engine to callers: it starts workflow
// runs on Temporal and shapes their outcomes for the HTTP surface.
package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Fathom/internal/activities"
	"github.com/Kocoro-lab/Fathom/internal/config"
	ometrics "github.com/Kocoro-lab/Fathom/internal/metrics"
	"github.com/Kocoro-lab/Fathom/internal/workflows"
)

// ReportService starts report runs and waits for their results.
type ReportService struct {
	tc     client.Client
	cfg    *config.Config
	logger *zap.Logger
}

func NewReportService(tc client.Client, cfg *config.Config, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{tc: tc, cfg: cfg, logger: logger}
}

// Run executes one report run synchronously. Contained failures surface in
// the result's Errors; only hard faults (planner transport failure, outline
// refresh failure, infrastructure loss) produce Success=false.
func (s *ReportService) Run(ctx context.Context, query string, history []activities.Message) workflows.ReportResult {
	start := time.Now()
	ometrics.RunsStarted.Inc()

	input := workflows.ReportInput{
		Query:           query,
		History:         history,
		MaxAttempts:     s.cfg.Run.MaxAttempts,
		MaxToolCalls:    s.cfg.Run.MaxToolCalls,
		SearchResults:   s.cfg.Run.SearchResults,
		ActivityTimeout: int(s.cfg.Run.ActivityTimeout.Seconds()),
	}
	opts := client.StartWorkflowOptions{
		ID:        "report-" + uuid.New().String(),
		TaskQueue: s.cfg.Temporal.TaskQueue,
	}

	we, err := s.tc.ExecuteWorkflow(ctx, opts, "ReportWorkflow", input)
	if err != nil {
		s.logger.Error("Failed to start report run", zap.Error(err))
		ometrics.RunsCompleted.WithLabelValues("start_error").Inc()
		return failedResult("run", "failed to start run: "+err.Error())
	}

	s.logger.Info("Report run started",
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()),
	)

	var result workflows.ReportResult
	if err := we.Get(ctx, &result); err != nil {
		s.logger.Error("Report run faulted",
			zap.String("workflow_id", we.GetID()),
			zap.Error(err),
		)
		ometrics.RunsCompleted.WithLabelValues("fault").Inc()
		ometrics.RunDuration.Observe(time.Since(start).Seconds())
		return failedResult("run", err.Error())
	}

	ometrics.RunsCompleted.WithLabelValues("ok").Inc()
	ometrics.RunDuration.Observe(time.Since(start).Seconds())
	return result
}

func failedResult(node, msg string) workflows.ReportResult {
	return workflows.ReportResult{
		Success: false,
		Errors:  []workflows.RunError{{Node: node, Message: msg}},
	}
}
