package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"slack-gpt-sessions/internal/domain/ports/repository"
	"slack-gpt-sessions/internal/infra/metrics"
)

// StatsWorker periodically publishes store pool stats and the token counter.
type StatsWorker struct {
	interval time.Duration
	driver   string
	store    repository.Store
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, driver string, store repository.Store, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		driver:   driver,
		store:    store,
		log:      &l,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.collect(ctx)
		}
	}
}

func (w *StatsWorker) collect(ctx context.Context) {
	st := w.store.Stats()
	metrics.SetDBPoolStats(w.driver, st.Total, st.Idle, st.InUse)

	total, err := w.store.Tokens().Total(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("token counter read failed")
		}
		return
	}
	metrics.SetTokensCounter(total)
}
