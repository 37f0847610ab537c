package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec // labeled by terminal state
	ActiveSessions  prometheus.Gauge

	Scans           *prometheus.CounterVec // labeled by outcome
	IdentifyLatency prometheus.Histogram

	AccessApproved prometheus.Counter
	AccessDenied   *prometheus.CounterVec // labeled by reason category

	ActuatorCommands *prometheus.CounterVec // labeled by command and result
	AuditDropped     prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_sessions_started_total",
			Help: "Total number of access sessions started",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_sessions_ended_total",
			Help: "Total number of sessions reaching a terminal state, labeled by state",
		}, []string{"state"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_active_sessions",
			Help: "Current number of non-terminal sessions in the registry",
		}),
		Scans: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_scans_total",
			Help: "Total number of face scans processed, labeled by outcome",
		}, []string{"outcome"}),
		IdentifyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_identify_latency_seconds",
			Help:    "Latency of 1:N identity matching in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		AccessApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_access_approved_total",
			Help: "Total number of approved access sessions",
		}),
		AccessDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_access_denied_total",
			Help: "Total number of denied authorization attempts, labeled by reason",
		}, []string{"reason"}),
		ActuatorCommands: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_actuator_commands_total",
			Help: "Total door actuator commands, labeled by command and result",
		}, []string{"command", "result"}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_audit_events_dropped_total",
			Help: "Audit events dropped because the publisher buffer was full",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
