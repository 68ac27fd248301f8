package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastCyclesTotal,
		broadcastDeliveriesTotal,
		broadcastCycleDurationMs,
	)
}

var (
	broadcastCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_cycles_total",
			Help: "Total number of completed broadcast cycles.",
		},
	)

	broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-subscriber delivery attempts by outcome.",
		},
		[]string{"status"}, // 'sent', 'weather_error', 'send_error'
	)

	broadcastCycleDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_cycle_duration_ms",
			Help:    "Duration of a full broadcast cycle in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
	)
)

func ObserveBroadcastCycle(durationMs int) {
	broadcastCyclesTotal.Inc()
	broadcastCycleDurationMs.Observe(float64(durationMs))
}

func IncDelivery(status string) {
	broadcastDeliveriesTotal.WithLabelValues(norm(status)).Inc()
}
