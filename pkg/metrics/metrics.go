package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	SignInsTotal       *prometheus.CounterVec
	RoleAssignments    *prometheus.CounterVec
	ProfileSyncsTotal  *prometheus.CounterVec
	AppointmentsTotal  *prometheus.CounterVec
	RoleCacheLookups   *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec
	AIGenerationsTotal *prometheus.CounterVec
	AIGenerationTime   *prometheus.HistogramVec

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

// NewCollector registers every metric on reg. Pass prometheus.DefaultRegisterer
// in the server and a fresh registry in tests.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		SignInsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "Sign-in attempts by method and outcome.",
		}, []string{"method", "outcome"}),

		RoleAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "role_assignments_total",
			Help:      "Role assignments by requested role and outcome.",
		}, []string{"role", "outcome"}),

		ProfileSyncsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "profile_syncs_total",
			Help:      "Profile synchronizations from the identity provider by outcome.",
		}, []string{"outcome"}),

		AppointmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "portal",
			Name:      "appointments_total",
			Help:      "Appointment transitions by resulting status.",
		}, []string{"status"}),

		RoleCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "cache",
			Name:      "role_lookups_total",
			Help:      "Role cache lookups by result (hit, miss, error).",
		}, []string{"result"}),

		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by limiter.",
		}, []string{"limiter"}),

		AIGenerationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "ai",
			Name:      "generations_total",
			Help:      "Generative text calls by feature and outcome.",
		}, []string{"feature", "outcome"}),

		AIGenerationTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "ai",
			Name:      "generation_duration_seconds",
			Help:      "Generative text call latency distribution.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"feature"}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
