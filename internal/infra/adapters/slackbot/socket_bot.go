package slackbot

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"slack-gpt-sessions/internal/infra/logging"
)

// SocketBot receives events over Socket Mode. Self-authored messages are
// delivered like any other; filtering them is the handler's job.
type SocketBot struct {
	client *socketmode.Client
	disp   *Dispatcher
	log    *zerolog.Logger
}

func NewSocketBot(api *slack.Client, disp *Dispatcher, debug bool, logger *zerolog.Logger) (*SocketBot, error) {
	if api == nil {
		return nil, errors.New("slack client is nil")
	}
	if disp == nil {
		return nil, errors.New("dispatcher is nil")
	}
	l := logger.With().Str("component", "slack_socket").Logger()
	return &SocketBot{
		client: socketmode.New(api, socketmode.OptionDebug(debug)),
		disp:   disp,
		log:    &l,
	}, nil
}

// Run connects and pumps events until ctx is cancelled.
func (b *SocketBot) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- b.client.RunContext(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case evt, ok := <-b.client.Events:
			if !ok {
				return nil
			}
			b.handle(ctx, evt)
		}
	}
}

func (b *SocketBot) handle(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.log.Info().Msg("connecting to slack")
	case socketmode.EventTypeConnected:
		b.log.Info().Msg("bot is live")
	case socketmode.EventTypeConnectionError:
		b.log.Warn().Interface("data", evt.Data).Msg("connection error")
	case socketmode.EventTypeEventsAPI:
		api, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		b.ack(evt)
		if api.Type != slackevents.CallbackEvent {
			return
		}
		if msg, ok := api.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			_ = b.disp.Message(envelopeContext(ctx, evt), FromMessageEvent(msg))
		}
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.ack(evt)
		_ = b.disp.Command(envelopeContext(ctx, evt), FromSlashCommand(cmd))
	}
}

func (b *SocketBot) ack(evt socketmode.Event) {
	if evt.Request == nil {
		return
	}
	b.client.Ack(*evt.Request)
}

// envelopeContext uses the socket envelope id as the trace id.
func envelopeContext(ctx context.Context, evt socketmode.Event) context.Context {
	if evt.Request == nil || evt.Request.EnvelopeID == "" {
		return ctx
	}
	return logging.WithTraceID(ctx, evt.Request.EnvelopeID)
}
