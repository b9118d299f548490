package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthnAttemptsTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		AuthnAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_authn_attempts_total",
			Help: "Total number of authentication attempts by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementAttempts(outcome string) {
	m.AuthnAttemptsTotal.WithLabelValues(outcome).Inc()
}
