package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"leadgate/internal/ratelimit/models"
)

// Metrics for the rate limiter. A nil *Metrics is a no-op.
type Metrics struct {
	ChecksTotal            *prometheus.CounterVec
	StoreErrorsTotal       *prometheus.CounterVec
	CleanupRunsTotal       *prometheus.CounterVec
	CleanupRemovedTotal    prometheus.Counter
	CleanupDurationSeconds prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_checks_total",
			Help: "Rate limit checks by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		StoreErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_store_errors_total",
			Help: "Counter store failures; requests are let through when this happens",
		}, []string{"endpoint"}),
		CleanupRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_cleanup_runs_total",
			Help: "Total number of cleanup runs",
		}, []string{"status"}),
		CleanupRemovedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_ratelimit_cleanup_removed_total",
			Help: "Expired window entries removed by the cleanup worker",
		}),
		CleanupDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgate_ratelimit_cleanup_duration_seconds",
			Help:    "Duration of cleanup runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveCheck(endpoint models.Endpoint, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.ChecksTotal.WithLabelValues(string(endpoint), outcome).Inc()
}

func (m *Metrics) IncStoreError(endpoint models.Endpoint) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(string(endpoint)).Inc()
}

func (m *Metrics) IncrementCleanupRuns(status string) {
	if m == nil {
		return
	}
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddCleanupRemoved(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.CleanupRemovedTotal.Add(float64(count))
}

func (m *Metrics) ObserveCleanupDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.CleanupDurationSeconds.Observe(d.Seconds())
}
