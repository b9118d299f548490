package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateLimitChecksTotal   *prometheus.CounterVec
	RateLimitDeniedTotal   *prometheus.CounterVec
	RateLimitFailOpenTotal prometheus.Counter
	GuardDeniedTotal       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RateLimitChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_checks_total",
			Help: "Total number of rate limit checks by outcome",
		}, []string{"outcome"}),
		RateLimitDeniedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_denied_total",
			Help: "Total number of denied requests by window kind",
		}, []string{"kind"}),
		RateLimitFailOpenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_failopen_total",
			Help: "Total number of requests allowed because the counter store was unreachable",
		}),
		GuardDeniedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quotagate_ratelimit_guard_denied_total",
			Help: "Total number of auth requests denied by the brute-force guard",
		}),
	}
}

func (m *Metrics) IncrementChecks(outcome string) {
	m.RateLimitChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementDenied(kind string) {
	m.RateLimitDeniedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementFailOpen() {
	m.RateLimitFailOpenTotal.Inc()
}

func (m *Metrics) IncrementGuardDenied() {
	m.GuardDeniedTotal.Inc()
}
