package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Decision labels the outcome of the guard for one request.
type Decision string

const (
	DecisionBypass       Decision = "bypass"
	DecisionPassed       Decision = "passed"
	DecisionBlocked      Decision = "blocked"
	DecisionPreflight    Decision = "preflight"
	DecisionCORSRejected Decision = "cors_rejected"
	DecisionError        Decision = "error"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	Blocked       *prometheus.CounterVec
	SlowRequests  prometheus.Counter
	SuspiciousUAs *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_guard_decisions_total",
			Help: "Request guard outcomes",
		}, []string{"decision"}),
		Blocked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_guard_blocked_total",
			Help: "Requests blocked by the guard, by matched signature",
		}, []string{"signature"}),
		SlowRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "leadgate_guard_slow_requests_total",
			Help: "Guarded requests slower than the configured threshold",
		}),
		SuspiciousUAs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgate_guard_suspicious_user_agents_total",
			Help: "Requests with an automated-looking user agent, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) IncDecision(d Decision) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(string(d)).Inc()
}

func (m *Metrics) IncBlocked(signature string) {
	if m == nil {
		return
	}
	m.Blocked.WithLabelValues(signature).Inc()
}

func (m *Metrics) IncSlow() {
	if m == nil {
		return
	}
	m.SlowRequests.Inc()
}

func (m *Metrics) IncSuspiciousUA(reason string) {
	if m == nil {
		return
	}
	m.SuspiciousUAs.WithLabelValues(reason).Inc()
}
