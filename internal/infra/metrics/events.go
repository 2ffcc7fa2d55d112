package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(eventsPublishedTotal) }

var eventsPublishedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Integration events written to the broker, by topic and status.",
	},
	[]string{"topic", "status"},
)

func IncEventPublished(topic, status string) {
	eventsPublishedTotal.WithLabelValues(norm(topic), norm(status)).Inc()
}
