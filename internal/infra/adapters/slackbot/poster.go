package slackbot

import (
	"context"
	"errors"

	"github.com/slack-go/slack"

	"slack-gpt-sessions/internal/domain/ports/adapter"
)

var _ adapter.Messenger = (*Poster)(nil)

// Poster sends chat.postMessage calls with the bot token.
type Poster struct {
	api *slack.Client
}

func NewPoster(api *slack.Client) (*Poster, error) {
	if api == nil {
		return nil, errors.New("slack client is nil")
	}
	return &Poster{api: api}, nil
}

func (p *Poster) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := p.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return "", err
	}
	return ts, nil
}
