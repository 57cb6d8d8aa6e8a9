package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionTurnsTotal, tokensCounter) }

var (
	sessionTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_turns_total",
			Help: "Turns appended to sessions by role.",
		},
		[]string{"role"}, // 'user', 'assistant'
	)

	tokensCounter = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tokens_counter",
			Help: "Last observed value of the stored running token total.",
		},
	)
)

func IncSessionTurn(role string) {
	sessionTurnsTotal.WithLabelValues(norm(role)).Inc()
}

func SetTokensCounter(total int64) {
	tokensCounter.Set(float64(total))
}
