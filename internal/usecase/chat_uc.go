// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"strings"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	"slack-gpt-sessions/internal/domain/ports/repository"
	"slack-gpt-sessions/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// Exchange is the outcome of one completed turn.
type Exchange struct {
	SessionID string
	Reply     string
	Usage     adapter.Usage
	// AssistantSaved is false when the reply was produced but could not be stored.
	AssistantSaved bool
}

type ChatUseCase interface {
	// Converse appends the user turn, reads the recent history, asks the
	// completion API and appends the assistant turn. The steps are not
	// transactional: a failure after the user turn is written leaves that
	// turn in place.
	Converse(ctx context.Context, sessionID, userID, text string) (*Exchange, error)
}

type chatUC struct {
	turns    repository.TurnRepository
	ai       adapter.AIServiceAdapter
	identity model.Identity
	limit    int
	log      *zerolog.Logger
	devMode  bool
}

func NewChatUseCase(turns repository.TurnRepository, ai adapter.AIServiceAdapter, identity model.Identity, historyLimit int, logger *zerolog.Logger, devMode bool) *chatUC {
	if historyLimit <= 0 {
		historyLimit = model.DefaultHistoryLimit
	}
	return &chatUC{
		turns:    turns,
		ai:       ai,
		identity: identity,
		limit:    historyLimit,
		log:      logger,
		devMode:  devMode,
	}
}

func (c *chatUC) Converse(ctx context.Context, sessionID, userID, text string) (*Exchange, error) {
	defer logging.TraceDuration(c.log, "ChatUC.Converse")()
	log := logging.With(ctx, c.log)

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidArgument
	}
	userTurn, err := model.NewTurn(sessionID, userID, model.RoleUser, text)
	if err != nil {
		return nil, err
	}
	if err := c.turns.Append(ctx, userTurn); err != nil {
		return nil, err
	}

	history, err := c.turns.Recent(ctx, sessionID, c.limit)
	if err != nil {
		return nil, err
	}
	msgs := make([]adapter.Message, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, adapter.Message{Role: string(t.Role), Content: t.Content})
	}
	log.Debug().Int("history", len(msgs)).Str("text", logging.Redact(text, c.devMode)).Msg("calling completion")

	reply, usage, err := c.ai.ChatWithUsage(ctx, msgs)
	if err != nil {
		return nil, err
	}

	if usage.TotalTokens == 0 {
		// provider omitted usage; fall back to a local estimate
		prompt, cerr := c.ai.CountTokens(ctx, msgs)
		completion, rerr := c.ai.CountTokens(ctx, []adapter.Message{{Role: string(model.RoleAssistant), Content: reply}})
		if cerr == nil && rerr == nil {
			usage = adapter.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion}
		}
		log.Warn().Int("estimated_tokens", usage.TotalTokens).Msg("completion returned no usage")
	}

	ex := &Exchange{SessionID: sessionID, Reply: reply, Usage: usage}
	botTurn, err := model.NewTurn(sessionID, c.identity.AuthorID(), model.RoleAssistant, reply)
	if err == nil {
		err = c.turns.Append(ctx, botTurn)
	}
	if err != nil {
		log.Error().Err(err).Str("kind", domain.ErrorKind(err)).Msg("assistant turn not stored")
		return ex, nil
	}
	ex.AssistantSaved = true
	return ex, nil
}
