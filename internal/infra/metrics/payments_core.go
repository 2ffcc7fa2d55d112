package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		ordersCreatedTotal,
		paymentsInitiatedTotal,
		orderTransitionsTotal,
		paymentsRevenueTotal,
		entitlementsGrantedTotal,
		paymentsStalePending,
	)
}

var (
	ordersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created, by product kind.",
		},
		[]string{"kind"},
	)

	paymentsInitiatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "New payment attempts, by gateway.",
		},
		[]string{"gateway"},
	)

	orderTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_transitions_total",
			Help: "Terminal transition requests, by outcome and whether they changed the order.",
		},
		[]string{"outcome", "applied"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful orders, labeled by currency.",
		},
		[]string{"currency"},
	)

	entitlementsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlements_granted_total",
			Help: "Entitlement grant calls, by product kind and result.",
		},
		[]string{"kind", "result"}, // result: 'granted', 'existing', 'error'
	)

	paymentsStalePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payments_stale_pending",
			Help: "Pending attempts older than the configured threshold at the last scan.",
		},
	)
)

func IncOrderCreated(kind string) {
	ordersCreatedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncPaymentInitiated(gateway string) {
	paymentsInitiatedTotal.WithLabelValues(norm(gateway)).Inc()
}

func IncTransition(outcome string, applied bool) {
	orderTransitionsTotal.WithLabelValues(norm(outcome), strconv.FormatBool(applied)).Inc()
}

func AddRevenue(currency string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(amount)
}

func IncEntitlement(kind, result string) {
	entitlementsGrantedTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}

func SetStalePending(n int) {
	paymentsStalePending.Set(float64(n))
}
