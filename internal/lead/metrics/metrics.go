package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for lead submissions. A nil *Metrics is a no-op.
type Metrics struct {
	SubmissionsTotal    *prometheus.CounterVec
	PersistAttempts     *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	UnmappedLabelsTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_lead_submissions_total",
			Help: "Lead submissions by product and outcome",
		}, []string{"product", "outcome"}),
		PersistAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_lead_persist_attempts_total",
			Help: "CMS write attempts by collection endpoint and outcome",
		}, []string{"product", "endpoint", "outcome"}),
		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_lead_notifications_total",
			Help: "Lead notifications by outcome",
		}, []string{"outcome"}),
		UnmappedLabelsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_lead_unmapped_fields_total",
			Help: "Form fields whose label or date had no canonical mapping",
		}, []string{"product", "field"}),
	}
}

func (m *Metrics) IncSubmission(product, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(product, outcome).Inc()
}

func (m *Metrics) IncPersistAttempt(product, endpoint string, ok bool) {
	if m == nil {
		return
	}
	m.PersistAttempts.WithLabelValues(product, endpoint, outcome(ok)).Inc()
}

func (m *Metrics) IncNotification(ok bool) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) IncUnmapped(product string, fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.UnmappedLabelsTotal.WithLabelValues(product, f).Inc()
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
