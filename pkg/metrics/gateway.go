package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks outbound payment gateway calls.
type GatewayMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Latency of payment gateway requests, including retries.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	}, []string{"op"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "gateway_requests_total",
		Help:      "Payment gateway requests by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(duration, requests)
	return &GatewayMetrics{duration: duration, requests: requests}
}

// ObserveRequest satisfies paystack.RequestObserver.
func (g *GatewayMetrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(op)).Observe(elapsed.Seconds())
	g.requests.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}
