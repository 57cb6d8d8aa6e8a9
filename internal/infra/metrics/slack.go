package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		slackEventsTotal,
		slackPostsTotal,
		usersRegisteredTotal,
	)
}

var (
	slackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_events_total",
			Help: "Inbound Slack events by classification.",
		},
		[]string{"kind"}, // 'turn', 'session_start', 'cost_query', 'self_echo', 'ignored', 'duplicate', 'command'
	)

	slackPostsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slack_posts_total",
			Help: "Outbound chat.postMessage calls by status.",
		},
		[]string{"status"}, // 'ok', 'error'
	)

	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Start command registrations.",
		},
	)
)

func IncSlackEvent(kind string) {
	slackEventsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncSlackPost(status string) {
	slackPostsTotal.WithLabelValues(norm(status)).Inc()
}

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}
