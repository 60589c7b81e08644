package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestsTotal counts served requests by route template and status code.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})

	// HTTPRequestDurationSeconds is the handler latency per route template.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safecampus",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route"})

	ReportsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "reports",
		Name:      "created_total",
		Help:      "Total number of reports submitted.",
	})

	ReportsUpdatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "reports",
		Name:      "updated_total",
		Help:      "Total number of report status or notes updates.",
	})

	ReportsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "reports",
		Name:      "deleted_total",
		Help:      "Total number of reports deleted by admins.",
	})

	// EvidenceFilesTotal counts evidence blob operations by operation and result.
	EvidenceFilesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "evidence",
		Name:      "files_total",
		Help:      "Total number of evidence blob operations, labeled by operation and result.",
	}, []string{"op", "result"})

	// LoginAttemptsTotal counts admin logins by result (success, invalid, throttled).
	LoginAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "auth",
		Name:      "login_attempts_total",
		Help:      "Total number of admin login attempts, labeled by result.",
	}, []string{"result"})

	// EventsPublishedTotal counts lifecycle events sent to RabbitMQ by result.
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecampus",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Total number of report lifecycle events published, labeled by event and result.",
	}, []string{"event", "result"})
)

// Register registers service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			ReportsCreatedTotal,
			ReportsUpdatedTotal,
			ReportsDeletedTotal,
			EvidenceFilesTotal,
			LoginAttemptsTotal,
			EventsPublishedTotal,
		)
	})
}
