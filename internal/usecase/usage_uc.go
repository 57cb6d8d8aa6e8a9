package usecase

import (
	"context"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
	"slack-gpt-sessions/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UsageUseCase = (*usageUC)(nil)

// UsageUseCase accumulates token usage and prices it.
type UsageUseCase interface {
	Record(ctx context.Context, tokens int64) error
	Report(ctx context.Context) (model.CostReport, error)
}

type usageUC struct {
	tokens   repository.TokenRepository
	usdPer1K float64
	log      *zerolog.Logger
}

func NewUsageUseCase(tokens repository.TokenRepository, usdPer1K float64, logger *zerolog.Logger) *usageUC {
	if usdPer1K <= 0 {
		usdPer1K = model.DefaultUSDPer1KTokens
	}
	return &usageUC{tokens: tokens, usdPer1K: usdPer1K, log: logger}
}

// Record adds tokens to the running total. The total never decreases.
func (u *usageUC) Record(ctx context.Context, tokens int64) error {
	if tokens < 0 {
		return domain.ErrInvalidArgument
	}
	if tokens == 0 {
		return nil
	}
	if err := u.tokens.Increment(ctx, tokens); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Int64("tokens", tokens).Msg("token counter not updated")
		return err
	}
	return nil
}

func (u *usageUC) Report(ctx context.Context) (model.CostReport, error) {
	defer logging.TraceDuration(u.log, "UsageUC.Report")()
	total, err := u.tokens.Total(ctx)
	if err != nil {
		return model.CostReport{}, err
	}
	return model.NewCostReport(total, u.usdPer1K), nil
}
