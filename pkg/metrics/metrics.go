package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Wall-clock duration of one full pipeline run.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "actionbot_run_duration_seconds",
			Help:    "Duration of one reminder pipeline run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// Items returned by the workspace source, per urgency category.
	ItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionbot_items_fetched_total",
			Help: "Action items fetched from the workspace source",
		},
		[]string{"category"},
	)

	// Source query latency, per operation (query, page, update).
	SourceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "actionbot_source_latency_ms",
			Help:    "Workspace source call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"operation"},
	)

	// Emails handed to the transport, per escalation tier.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionbot_emails_sent_total",
			Help: "Reminder emails accepted by the transport",
		},
		[]string{"tier"},
	)

	// Transport failures, per escalation tier.
	EmailSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionbot_email_send_failures_total",
			Help: "Reminder emails the transport rejected",
		},
		[]string{"tier"},
	)

	// Items excluded from a digest because they were already sent today.
	DedupSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "actionbot_dedup_skips_total",
			Help: "Items skipped by the same-day dedup check",
		},
		[]string{"category"},
	)

	// History rows that failed to persist after a successful send.
	// Non-zero values mean duplicate emails are possible on the next run.
	HistoryWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "actionbot_history_write_failures_total",
			Help: "Sent-email history rows that failed to persist",
		},
	)
)

// ObserveSourceLatency records one workspace source call.
func ObserveSourceLatency(operation string, took time.Duration) {
	SourceLatency.WithLabelValues(operation).Observe(float64(took.Milliseconds()))
}

// IncrementItemsFetched records items returned for a category fetch.
func IncrementItemsFetched(category string, n int) {
	ItemsFetched.WithLabelValues(category).Add(float64(n))
}

// IncrementEmailsSent records one accepted send for a tier.
func IncrementEmailsSent(tier string) {
	EmailsSent.WithLabelValues(tier).Inc()
}

// IncrementEmailSendFailures records one rejected send for a tier.
func IncrementEmailSendFailures(tier string) {
	EmailSendFailures.WithLabelValues(tier).Inc()
}

// IncrementDedupSkips records one same-day dedup exclusion.
func IncrementDedupSkips(category string) {
	DedupSkips.WithLabelValues(category).Inc()
}
