package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	"slack-gpt-sessions/internal/infra/logging"
	"slack-gpt-sessions/internal/infra/metrics"
	"slack-gpt-sessions/internal/usecase"
)

// Kind is the classification of an inbound message event.
type Kind string

const (
	KindIgnored      Kind = "ignored"
	KindSessionStart Kind = "session_start"
	KindTurn         Kind = "turn"
	KindCostQuery    Kind = "cost_query"
	KindSelfEcho     Kind = "self_echo"
)

// Deduper reports whether an event key was already handled.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

// Settings are the fixed channel rules of one deployment.
type Settings struct {
	FocusChannel   string
	StartCommand   string
	SessionTrigger string
	CostCommand    string
	Identity       model.Identity
}

// Coordinator classifies gateway events and drives the session flows.
type Coordinator struct {
	chat  usecase.ChatUseCase
	users usecase.UserUseCase
	usage usecase.UsageUseCase
	out   adapter.Messenger
	dedup Deduper
	cfg   Settings
	log   *zerolog.Logger
}

func NewCoordinator(
	chat usecase.ChatUseCase,
	users usecase.UserUseCase,
	usage usecase.UsageUseCase,
	out adapter.Messenger,
	dedup Deduper,
	cfg Settings,
	logger *zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		chat:  chat,
		users: users,
		usage: usage,
		out:   out,
		dedup: dedup,
		cfg:   cfg,
		log:   logger,
	}
}

// isOwnIdentity is the self-loop guard. The bot receives its own posts as
// events, so any author id matching the bot must never become a user turn.
func (c *Coordinator) isOwnIdentity(authorID string) bool {
	return c.cfg.Identity.IsOwn(authorID)
}

func (c *Coordinator) authoredBySelf(ev model.MessageEvent) bool {
	if ev.IsBotAuthor() && c.isOwnIdentity(ev.BotID) {
		return true
	}
	return c.isOwnIdentity(ev.UserID)
}

// isCostQuery is an exact text match; "!cost please" is not a query.
func (c *Coordinator) isCostQuery(ev model.MessageEvent) bool {
	return c.cfg.CostCommand != "" && ev.Text == c.cfg.CostCommand
}

// Classify decides what an event means. The self-loop guard runs before
// any turn. A human cost query inside a thread is still a turn; HandleMessage
// reports the cost after it.
func (c *Coordinator) Classify(ev model.MessageEvent) Kind {
	if ev.Channel != c.cfg.FocusChannel || ev.IsHidden() {
		return KindIgnored
	}
	self := c.authoredBySelf(ev)
	if self && !ev.InThread() && strings.HasPrefix(ev.Text, c.cfg.SessionTrigger) {
		return KindSessionStart
	}
	if ev.InThread() && !self && strings.TrimSpace(ev.Text) != "" {
		return KindTurn
	}
	if c.isCostQuery(ev) {
		return KindCostQuery
	}
	if ev.InThread() && self {
		return KindSelfEcho
	}
	return KindIgnored
}

// HandleMessage runs the flow for one message event. Failures are logged
// and returned; nothing is retried and nothing is posted on failure.
func (c *Coordinator) HandleMessage(ctx context.Context, ev model.MessageEvent) error {
	ctx = ensureTraceID(ctx)
	ctx = logging.WithChannel(ctx, ev.Channel)
	if ev.UserID != "" {
		ctx = logging.WithUserID(ctx, ev.UserID)
	}
	if ev.InThread() {
		ctx = logging.WithSessID(ctx, ev.ThreadTS)
	}
	log := logging.With(ctx, c.log)

	kind := c.Classify(ev)
	if kind == KindIgnored || kind == KindSelfEcho {
		metrics.IncSlackEvent(string(kind))
		log.Trace().Str("kind", string(kind)).Str("ts", ev.TS).Msg("event skipped")
		return nil
	}
	if c.duplicate(ctx, ev.DedupKey()) {
		metrics.IncSlackEvent("duplicate")
		log.Debug().Str("ts", ev.TS).Msg("duplicate delivery dropped")
		return nil
	}
	metrics.IncSlackEvent(string(kind))

	var err error
	switch kind {
	case KindCostQuery:
		err = c.reportCost(ctx, ev)
	case KindSessionStart:
		_, err = c.post(ctx, ev.Channel, AskPrompt(), ev.TS)
	case KindTurn:
		err = c.converse(ctx, ev)
		if c.isCostQuery(ev) {
			err = errors.Join(err, c.reportCost(ctx, ev))
		}
	}
	if err != nil {
		log.Error().Err(err).Str("kind", string(kind)).Str("error_kind", domain.ErrorKind(err)).Msg("event handling failed")
	}
	return err
}

// HandleCommand registers the invoking user and posts the session-start
// message. Commands from other channels or with other names are ignored.
func (c *Coordinator) HandleCommand(ctx context.Context, cmd model.SlashCommand) error {
	ctx = ensureTraceID(ctx)
	ctx = logging.WithChannel(ctx, cmd.ChannelID)
	ctx = logging.WithUserID(ctx, cmd.UserID)
	log := logging.With(ctx, c.log)

	if cmd.ChannelID != c.cfg.FocusChannel || cmd.Command != c.cfg.StartCommand {
		metrics.IncSlackEvent(string(KindIgnored))
		return nil
	}
	metrics.IncSlackEvent("command")

	u, created, err := c.users.Register(ctx, cmd.UserID, cmd.UserName)
	if err != nil {
		log.Error().Err(err).Msg("user registration failed")
		return err
	}
	if created {
		metrics.IncUsersRegistered()
		log.Info().Str("user_name", u.Name).Msg("user registered")
	}

	if _, err := c.post(ctx, c.cfg.FocusChannel, SessionStartText(c.cfg.SessionTrigger, u.Name), ""); err != nil {
		log.Error().Err(err).Msg("session start post failed")
		return err
	}
	return nil
}

func (c *Coordinator) converse(ctx context.Context, ev model.MessageEvent) error {
	log := logging.With(ctx, c.log)

	start := time.Now()
	author := ev.UserID
	if author == "" {
		author = ev.BotID
	}
	ex, err := c.chat.Converse(ctx, ev.ThreadTS, author, ev.Text)
	if err != nil {
		return err
	}
	metrics.IncSessionTurn(string(model.RoleUser))
	if ex.AssistantSaved {
		metrics.IncSessionTurn(string(model.RoleAssistant))
	}
	log.Debug().Dur("elapsed", time.Since(start)).Int("tokens", ex.Usage.TotalTokens).Msg("completion received")

	_, postErr := c.post(ctx, ev.Channel, ReplyText(ex.Reply, ex.Usage.TotalTokens), ev.ThreadTS)

	// tokens were spent whether or not the post went through
	if err := c.usage.Record(ctx, int64(ex.Usage.TotalTokens)); err != nil {
		log.Error().Err(err).Msg("token usage not recorded")
		if postErr == nil {
			return err
		}
	}
	return postErr
}

func (c *Coordinator) reportCost(ctx context.Context, ev model.MessageEvent) error {
	rep, err := c.usage.Report(ctx)
	if err != nil {
		return err
	}
	metrics.SetTokensCounter(rep.Tokens)
	_, err = c.post(ctx, ev.Channel, CostText(rep), "")
	return err
}

func (c *Coordinator) post(ctx context.Context, channel, text, threadTS string) (string, error) {
	ts, err := c.out.PostMessage(ctx, channel, text, threadTS)
	if err != nil {
		metrics.IncSlackPost("error")
		return "", err
	}
	metrics.IncSlackPost("ok")
	return ts, nil
}

func (c *Coordinator) duplicate(ctx context.Context, key string) bool {
	if c.dedup == nil {
		return false
	}
	seen, err := c.dedup.Seen(ctx, key)
	if err != nil {
		// dedup outage must not drop events
		logging.With(ctx, c.log).Warn().Err(err).Msg("dedup lookup failed")
		return false
	}
	return seen
}

// ensureTraceID keeps a trace id handed over by the gateway and mints one otherwise.
func ensureTraceID(ctx context.Context) context.Context {
	if logging.TraceID(ctx) != "" {
		return ctx
	}
	return logging.WithTraceID(ctx, uuid.NewString())
}
