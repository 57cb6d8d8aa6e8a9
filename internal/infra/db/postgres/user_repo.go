package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Register(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (user_id, user_name, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING;`
	_, err := r.pool.Exec(ctx, q, u.ID, u.Name, u.RegisteredAt)
	return wrap("register user", err)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT user_id, user_name, created_at FROM users WHERE user_id=$1;`
	var u model.User
	if err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Name, &u.RegisteredAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, wrap("find user", err)
	}
	return &u, nil
}
