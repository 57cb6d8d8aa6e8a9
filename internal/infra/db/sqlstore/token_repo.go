package sqlstore

import (
	"context"
	"database/sql"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

type TokenRepo struct {
	db *sql.DB
}

func (r *TokenRepo) Increment(ctx context.Context, delta int64) error {
	if delta < 0 {
		return domain.ErrInvalidArgument
	}
	res, err := r.db.ExecContext(ctx, "UPDATE `tokens` SET `token_count` = `token_count` + ? WHERE `id` = 1", delta)
	if err != nil {
		return domain.NewStoreError("increment tokens", err)
	}
	// MySQL reports 0 affected rows for a no-op update, so only a missing row is an error
	if n, err := res.RowsAffected(); err == nil && n == 0 && delta > 0 {
		return domain.NewStoreError("increment tokens", domain.ErrNotFound)
	}
	return nil
}

func (r *TokenRepo) Total(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT `token_count` FROM `tokens` WHERE `id` = 1").Scan(&n); err != nil {
		return 0, domain.NewStoreError("read tokens", err)
	}
	return n, nil
}
