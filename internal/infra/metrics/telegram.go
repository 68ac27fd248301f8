package metrics

import (
	"telegram-weather-bot/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscribersTotal,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
	)
}

var (
	subscribersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscribers_total",
			Help: "Current number of subscribers by language.",
		},
		[]string{"language"},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)
)

func SetSubscribersTotal(counts map[model.Language]int) {
	for _, lang := range []model.Language{model.LangRU, model.LangEN} {
		subscribersTotal.WithLabelValues(string(lang)).Set(float64(counts[lang]))
	}
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}
