package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(webhookCallbacksTotal, webhookDuration) }

var (
	// result is one bounded reason: applied|duplicate|pending|signature_invalid|
	// malformed|unknown_order|gateway_unavailable|amount_mismatch|rejected|storage_failure
	webhookCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_callbacks_total",
			Help: "Gateway callbacks by gateway and result.",
		},
		[]string{"gateway", "result"},
	)

	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_duration_seconds",
			Help:    "Duration of callback processing in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"gateway"},
	)
)

// ObserveWebhook records one callback. gateway must be a configured name;
// an empty one is counted as "unknown".
func ObserveWebhook(gateway, result string, d time.Duration) {
	if gateway == "" {
		gateway = "unknown"
	}
	if result == "" {
		result = "unknown"
	}
	webhookCallbacksTotal.WithLabelValues(norm(gateway), norm(result)).Inc()
	webhookDuration.WithLabelValues(norm(gateway)).Observe(d.Seconds())
}
