package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricsEnabled = true // Flag to control metric collection

var (
	tenantLabels       = []string{"tenant_id"}
	channelLabels      = []string{"tenant_id", "channel", "outcome"}
	tierLabels         = []string{"tenant_id", "tier"}
	dbOperationLabels  = []string{"operation", "entity", "tenant_id", "status"}
	composeRouteLabels = []string{"tenant_id", "route"}

	// EscalationsCreatedTotal counts escalation requests created, by tier.
	EscalationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_escalations_created_total",
			Help: "Total number of escalation requests created, labeled by trigger tier.",
		},
		tierLabels,
	)

	// EscalationsSuppressedTotal counts create calls refused by the
	// active-escalation duplicate guard.
	EscalationsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_escalations_suppressed_total",
			Help: "Total number of escalation create calls suppressed because the conversation already had an active request.",
		},
		tenantLabels,
	)

	// EscalationsExpiredTotal counts requests transitioned by the expiry sweep.
	EscalationsExpiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_escalations_expired_total",
			Help: "Total number of escalation requests auto-expired by the sweep.",
		},
		tenantLabels,
	)

	// NotificationOutcomesTotal counts per-channel fan-out results.
	NotificationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_notification_outcomes_total",
			Help: "Total notification attempts, labeled by channel and outcome.",
		},
		channelLabels,
	)

	// ReminderJobsCreatedTotal counts reminder jobs created per tick.
	ReminderJobsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_reminder_jobs_created_total",
			Help: "Total number of reminder jobs created.",
		},
		tenantLabels,
	)

	// ReminderJobsSentTotal counts jobs successfully dispatched.
	ReminderJobsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_reminder_jobs_sent_total",
			Help: "Total number of reminder jobs marked sent.",
		},
		tenantLabels,
	)

	// ReminderJobsFailedTotal counts jobs that failed dispatch.
	ReminderJobsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_reminder_jobs_failed_total",
			Help: "Total number of reminder jobs marked failed.",
		},
		tenantLabels,
	)

	// ReminderComposeRouteTotal tracks which composition path produced
	// the message (ai or template fallback).
	ReminderComposeRouteTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_core_reminder_compose_route_total",
			Help: "Total composed reminder messages, labeled by generation route.",
		},
		composeRouteLabels,
	)

	// ReminderTickDurationSeconds measures full tick durations per tenant.
	ReminderTickDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_core_reminder_tick_duration_seconds",
			Help:    "Histogram of reminder tick durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		tenantLabels,
	)

	// DbOperationDurationSeconds measures repository operation durations.
	DbOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_core_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		dbOperationLabels,
	)
)

// InitMetrics toggles metric collection. Metric objects are registered
// unconditionally; recording is skipped when disabled.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncEscalationCreated records a created escalation request.
func IncEscalationCreated(tenantID, tier string) {
	if !metricsEnabled {
		return
	}
	EscalationsCreatedTotal.WithLabelValues(tenantID, tier).Inc()
}

// IncEscalationSuppressed records a duplicate-guard refusal.
func IncEscalationSuppressed(tenantID string) {
	if !metricsEnabled {
		return
	}
	EscalationsSuppressedTotal.WithLabelValues(tenantID).Inc()
}

// IncEscalationsExpired records sweep transitions.
func IncEscalationsExpired(tenantID string, count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	EscalationsExpiredTotal.WithLabelValues(tenantID).Add(float64(count))
}

// IncNotificationOutcome records one channel attempt.
func IncNotificationOutcome(tenantID, channel string, ok bool) {
	if !metricsEnabled {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	NotificationOutcomesTotal.WithLabelValues(tenantID, channel, outcome).Inc()
}

// IncReminderJobCreated records a created reminder job.
func IncReminderJobCreated(tenantID string) {
	if !metricsEnabled {
		return
	}
	ReminderJobsCreatedTotal.WithLabelValues(tenantID).Inc()
}

// IncReminderJobSent records a dispatched job.
func IncReminderJobSent(tenantID string) {
	if !metricsEnabled {
		return
	}
	ReminderJobsSentTotal.WithLabelValues(tenantID).Inc()
}

// IncReminderJobFailed records a failed dispatch.
func IncReminderJobFailed(tenantID string) {
	if !metricsEnabled {
		return
	}
	ReminderJobsFailedTotal.WithLabelValues(tenantID).Inc()
}

// IncComposeRoute records which generation path produced a message.
func IncComposeRoute(tenantID, route string) {
	if !metricsEnabled {
		return
	}
	ReminderComposeRouteTotal.WithLabelValues(tenantID, route).Inc()
}

// ObserveReminderTickDuration records a full tick duration.
func ObserveReminderTickDuration(tenantID string, d time.Duration) {
	if !metricsEnabled {
		return
	}
	ReminderTickDurationSeconds.WithLabelValues(tenantID).Observe(d.Seconds())
}

// ObserveDbOperationDuration records one repository operation.
func ObserveDbOperationDuration(operation, entity, tenantID string, d time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DbOperationDurationSeconds.WithLabelValues(operation, entity, tenantID, status).Observe(d.Seconds())
}
