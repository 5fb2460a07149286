package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters.
type Metrics struct {
	cyclesCompleted prometheus.Counter
	targetsScanned  prometheus.Counter
	alertsSent      prometheus.Counter
	fetchErrors     prometheus.Counter
	notifyFailures  prometheus.Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// Init initializes global metrics (idempotent).
func Init() *Metrics {
	once.Do(func() {
		metrics = &Metrics{
			cyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chainsonar_cycles_completed_total",
				Help: "Total number of full scan cycles completed",
			}),
			targetsScanned: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chainsonar_targets_scanned_total",
				Help: "Total number of per-target scans performed",
			}),
			alertsSent: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chainsonar_alerts_sent_total",
				Help: "Total number of qualifying transfers alerted",
			}),
			fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chainsonar_fetch_errors_total",
				Help: "Total number of explorer API fetch failures",
			}),
			notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "chainsonar_notify_failures_total",
				Help: "Total number of desktop notification failures",
			}),
		}
		prometheus.MustRegister(
			metrics.cyclesCompleted,
			metrics.targetsScanned,
			metrics.alertsSent,
			metrics.fetchErrors,
			metrics.notifyFailures,
		)
	})
	return metrics
}

// CycleCompleted increments the completed cycles counter.
func (m *Metrics) CycleCompleted() {
	if m != nil {
		m.cyclesCompleted.Inc()
	}
}

// TargetScanned increments the per-target scan counter.
func (m *Metrics) TargetScanned() {
	if m != nil {
		m.targetsScanned.Inc()
	}
}

// AlertSent increments the alerts counter.
func (m *Metrics) AlertSent() {
	if m != nil {
		m.alertsSent.Inc()
	}
}

// FetchError increments the fetch error counter.
func (m *Metrics) FetchError() {
	if m != nil {
		m.fetchErrors.Inc()
	}
}

// NotifyFailure increments the notification failure counter.
func (m *Metrics) NotifyFailure() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
