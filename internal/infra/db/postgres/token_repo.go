package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.TokenRepository = (*TokenRepo)(nil)

type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Increment is a single UPDATE, so concurrent calls never lose a delta.
func (r *TokenRepo) Increment(ctx context.Context, delta int64) error {
	if delta < 0 {
		return domain.ErrInvalidArgument
	}
	tag, err := r.pool.Exec(ctx, `UPDATE tokens SET token_count = token_count + $1 WHERE id = 1;`, delta)
	if err != nil {
		return wrap("increment tokens", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("increment tokens", domain.ErrNotFound)
	}
	return nil
}

func (r *TokenRepo) Total(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT token_count FROM tokens WHERE id = 1;`).Scan(&n); err != nil {
		return 0, wrap("read tokens", err)
	}
	return n, nil
}
