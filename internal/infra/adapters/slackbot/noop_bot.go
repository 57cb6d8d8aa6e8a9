package slackbot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*NoopMessenger)(nil)

// NoopMessenger implements adapter.Messenger for local/dev runs.
// It logs posts instead of calling Slack.
type NoopMessenger struct {
	log *zerolog.Logger
	seq atomic.Int64
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	l := logger.With().Str("component", "noop_slack").Logger()
	return &NoopMessenger{log: &l}
}

func (n *NoopMessenger) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ts := fmt.Sprintf("%d.%06d", time.Now().Unix(), n.seq.Add(1))
	n.log.Info().Str("channel", channel).Str("thread_ts", threadTS).Str("ts", ts).Str("text", text).Msg("post")
	return ts, nil
}
