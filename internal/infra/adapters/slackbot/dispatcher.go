package slackbot

import (
	"context"

	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/infra/logging"
	"slack-gpt-sessions/internal/infra/worker"
)

// Handler consumes decoded gateway events.
type Handler interface {
	HandleMessage(ctx context.Context, ev model.MessageEvent) error
	HandleCommand(ctx context.Context, cmd model.SlashCommand) error
}

// Dispatcher hands events to the worker pool so the gateway can ack Slack
// immediately. Socket mode and the HTTP endpoint share it.
type Dispatcher struct {
	pool    *worker.Pool
	handler Handler
	log     *zerolog.Logger
}

func NewDispatcher(pool *worker.Pool, handler Handler, logger *zerolog.Logger) *Dispatcher {
	l := logger.With().Str("component", "slack_dispatcher").Logger()
	return &Dispatcher{pool: pool, handler: handler, log: &l}
}

// Message queues a message event. The trace id on ctx is carried over to
// the worker context.
func (d *Dispatcher) Message(ctx context.Context, ev model.MessageEvent) error {
	tid := logging.TraceID(ctx)
	err := d.pool.Submit(ctx, func(wctx context.Context) error {
		return d.handler.HandleMessage(withTrace(wctx, tid), ev)
	})
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Str("channel", ev.Channel).Str("ts", ev.TS).Msg("message not queued")
	}
	return err
}

func (d *Dispatcher) Command(ctx context.Context, cmd model.SlashCommand) error {
	tid := logging.TraceID(ctx)
	err := d.pool.Submit(ctx, func(wctx context.Context) error {
		return d.handler.HandleCommand(withTrace(wctx, tid), cmd)
	})
	if err != nil {
		logging.With(ctx, d.log).Error().Err(err).Str("command", cmd.Command).Msg("command not queued")
	}
	return err
}

func withTrace(ctx context.Context, tid string) context.Context {
	if tid == "" {
		return ctx
	}
	return logging.WithTraceID(ctx, tid)
}
