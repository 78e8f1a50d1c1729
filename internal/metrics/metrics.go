// Package metrics exposes counters and gauges for the background loops
// (follow-up executor, calendar sync/reminder loop) so an operator can
// see tick throughput and failure rates without tailing logs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry wraps the counters and gauges this module publishes, backed
// by its own prometheus.Registry rather than the global default so two
// Registry instances (e.g. across tests) never collide on metric names.
type Registry struct {
	prom *prometheus.Registry

	FollowUpsProcessed *prometheus.CounterVec
	FollowUpsFailed    *prometheus.CounterVec
	FollowUpQueueDepth prometheus.Gauge

	RemindersSent    *prometheus.CounterVec
	CalendarSyncRuns *prometheus.CounterVec
	CRMSyncFailures  prometheus.Counter
}

// New builds a Registry with every metric registered. Call once at
// bootstrap and share the result across the follow-up executor,
// calendar sync/reminder loop, and CRM adapter.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		prom: reg,
		FollowUpsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "followup",
			Name:      "processed_total",
			Help:      "Follow-ups claimed and processed, by kind.",
		}, []string{"kind"}),
		FollowUpsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "followup",
			Name:      "failed_total",
			Help:      "Follow-ups that failed delivery, by kind.",
		}, []string{"kind"}),
		FollowUpQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "sdr",
			Subsystem: "followup",
			Name:      "queue_depth",
			Help:      "Pending follow-ups observed on the last tick.",
		}),
		RemindersSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "calendar",
			Name:      "reminders_sent_total",
			Help:      "Meeting reminders sent, by outcome.",
		}, []string{"outcome"}),
		CalendarSyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "calendar",
			Name:      "sync_runs_total",
			Help:      "Calendar sync loop runs, by outcome.",
		}, []string{"outcome"}),
		CRMSyncFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sdr",
			Subsystem: "crm",
			Name:      "sync_failures_total",
			Help:      "CRM sync attempts that failed (best-effort; never blocks the conversation).",
		}),
	}
}

// Gatherer exposes the underlying registry for the /metrics HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}
