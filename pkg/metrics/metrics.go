package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsCreated counts submitted abuse reports by report type.
	ReportsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platewatch_reports_created_total",
			Help: "Total number of abuse reports submitted",
		},
		[]string{"type"},
	)

	// ModerationActions counts executed moderation actions by action and trigger (manual|auto).
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platewatch_moderation_actions_total",
			Help: "Total number of moderation actions executed",
		},
		[]string{"action", "trigger"},
	)

	// NotificationDeliveries counts notification fan-out outcomes (sent|failed).
	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platewatch_notification_deliveries_total",
			Help: "Total number of per-recipient notification delivery attempts",
		},
		[]string{"result"},
	)

	// PendingReports tracks the number of reports currently awaiting review.
	PendingReports = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "platewatch_pending_reports",
			Help: "Number of reports in PENDING status",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "platewatch_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
