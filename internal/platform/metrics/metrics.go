package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics. Domain packages
// carry their own metric sets; this one only sees HTTP.
type Metrics struct {
	EndpointLatency  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New creates and registers the transport metrics.
func New() *Metrics {
	return &Metrics{
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quotagate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "status"}),
		RequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "quotagate_requests_in_flight",
			Help: "Current number of in-flight HTTP requests",
		}),
	}
}

// ObserveEndpointLatency records one request's duration.
func (m *Metrics) ObserveEndpointLatency(endpoint, status string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint, status).Observe(durationSeconds)
}
