package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		weatherFetchesTotal,
		weatherFetchLatencyMs,
		translationFallbacksTotal,
	)
}

var (
	weatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetches_total",
			Help: "Weather provider calls by outcome.",
		},
		[]string{"status"}, // 'ok', 'not_found', 'unavailable', 'malformed'
	)

	weatherFetchLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weather_fetch_latency_ms",
			Help:    "Weather provider call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
	)

	translationFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "translation_fallbacks_total",
			Help: "Times a description was delivered untranslated because the translation call failed.",
		},
	)
)

func ObserveWeatherFetch(status string, latencyMs int) {
	weatherFetchesTotal.WithLabelValues(norm(status)).Inc()
	weatherFetchLatencyMs.Observe(float64(latencyMs))
}

func IncTranslationFallback() {
	translationFallbacksTotal.Inc()
}
