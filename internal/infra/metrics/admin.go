package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(adminRequestsTotal, manualVerificationsTotal) }

var (
	adminRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Tracks attempts to use operator endpoints.",
		},
		[]string{"action", "status"}, // status: 'authorized', 'unauthorized'
	)

	manualVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manual_verifications_total",
			Help: "Payment attempts resolved by an operator, by resulting status.",
		},
		[]string{"status"},
	)
)

func IncAdminRequest(action, status string) {
	adminRequestsTotal.WithLabelValues(norm(action), norm(status)).Inc()
}

func IncManualVerification(status string) {
	manualVerificationsTotal.WithLabelValues(norm(status)).Inc()
}
