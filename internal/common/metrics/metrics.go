// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_emails_processed_total",
			Help: "Total number of emails processed by category",
		},
		[]string{"category", "direction"},
	)

	EmailsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_emails_failed_total",
			Help: "Total number of emails that errored during processing",
		},
		[]string{"error_code"},
	)

	MatchDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_match_decisions_total",
			Help: "Total match decisions by method and review flag",
		},
		[]string{"method", "needs_review"},
	)

	DisambiguationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_disambiguation_calls_total",
			Help: "Total disambiguation calls by outcome",
		},
		[]string{"outcome"},
	)

	TasksMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_tasks_materialized_total",
			Help: "Total task specs materialized by type",
		},
		[]string{"task_type"},
	)

	TasksSynced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_tasks_synced_total",
			Help: "Total task specs synced to the task collaborator",
		},
		[]string{"status"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pipeline_email_duration_seconds",
			Help: "Duration of a single email pipeline in seconds",
		},
		[]string{"category"},
	)

	PipelinesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_emails_active",
			Help: "Number of email pipelines currently running",
		},
	)
)
