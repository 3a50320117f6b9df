package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for security event delivery.
type Metrics struct {
	QueueDepth        prometheus.Gauge
	Flushed           *prometheus.CounterVec
	Dropped           prometheus.Counter
	DroppedAfterRetry *prometheus.CounterVec
	Retries           *prometheus.CounterVec
	FlushDuration     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leadgate_security_events_queue_depth",
			Help: "Current number of security events waiting in the buffer",
		}),
		Flushed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_security_events_flushed_total",
			Help: "Security events successfully written, by sink",
		}, []string{"sink"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_security_events_dropped_total",
			Help: "Security events dropped because the buffer was full",
		}),
		DroppedAfterRetry: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_security_events_dropped_after_retry_total",
			Help: "Security events dropped after exhausting retries, by sink",
		}, []string{"sink"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_security_events_retries_total",
			Help: "Retry attempts for security event writes, by sink",
		}, []string{"sink"}),
		FlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgate_security_events_flush_duration_seconds",
			Help:    "Time taken to flush a batch of security events",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

func (m *Metrics) AddFlushed(sink string, n int) {
	m.Flushed.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) IncDropped() {
	m.Dropped.Inc()
}

func (m *Metrics) AddDroppedAfterRetry(sink string, n int) {
	m.DroppedAfterRetry.WithLabelValues(sink).Add(float64(n))
}

func (m *Metrics) IncRetries(sink string) {
	m.Retries.WithLabelValues(sink).Inc()
}

func (m *Metrics) ObserveFlushDuration(durationSeconds float64) {
	m.FlushDuration.Observe(durationSeconds)
}
