// Package metrics defines the engine's prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_runs_started_total",
			Help: "Total number of report runs started",
		},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_runs_completed_total",
			Help: "Total number of report runs completed",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fathom_run_duration_seconds",
			Help:    "End-to-end report run duration in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1800},
		},
	)

	// Plan task metrics
	TasksExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_tasks_executed_total",
			Help: "Total number of plan tasks executed",
		},
		[]string{"task_type", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_task_duration_seconds",
			Help:    "Plan task execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	PlanItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_plan_items",
			Help:    "Number of plan items produced by the planner",
			Buckets: []float64{0, 2, 4, 6, 8, 12, 16, 24},
		},
		[]string{"task_type"},
	)

	// Citation metrics
	CitationsAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fathom_citations_assigned_total",
			Help: "Total number of unique citation numbers assigned",
		},
	)

	// Collaborator call metrics
	llmCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_llm_calls_total",
			Help: "Total number of LLM service calls",
		},
		[]string{"endpoint", "status"},
	)

	llmCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_llm_call_duration_seconds",
			Help:    "LLM service call duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	searchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_search_calls_total",
			Help: "Total number of search service calls",
		},
		[]string{"status"},
	)

	searchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fathom_search_results",
			Help:    "Number of results returned per search call",
			Buckets: []float64{0, 1, 3, 5, 10, 20},
		},
	)

	searchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fathom_search_duration_seconds",
			Help:    "Search call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	vectorOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_vector_ops_total",
			Help: "Total number of vector store operations",
		},
		[]string{"op", "status"},
	)

	vectorOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_vector_op_duration_seconds",
			Help:    "Vector store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	embeddingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathom_embedding_calls_total",
			Help: "Total number of embedding generations by outcome",
		},
		[]string{"model", "status"},
	)

	embeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathom_embedding_duration_seconds",
			Help:    "Embedding generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
)

// RecordLLMCall records one LLM service call.
func RecordLLMCall(endpoint, status string, seconds float64) {
	llmCalls.WithLabelValues(endpoint, status).Inc()
	if status == "ok" {
		llmCallDuration.WithLabelValues(endpoint).Observe(seconds)
	}
}

// RecordSearch records one search call and its result count.
func RecordSearch(status string, results int, seconds float64) {
	searchCalls.WithLabelValues(status).Inc()
	if status == "ok" {
		searchResults.Observe(float64(results))
		searchDuration.Observe(seconds)
	}
}

// RecordVectorOp records one vector store operation.
func RecordVectorOp(op, status string, seconds float64) {
	vectorOps.WithLabelValues(op, status).Inc()
	if status == "ok" {
		vectorOpDuration.WithLabelValues(op).Observe(seconds)
	}
}

// RecordEmbedding records one embedding generation or cache hit.
func RecordEmbedding(model, status string, seconds float64) {
	embeddingCalls.WithLabelValues(model, status).Inc()
	if status == "ok" || status == "batch_ok" {
		embeddingDuration.WithLabelValues(model).Observe(seconds)
	}
}
