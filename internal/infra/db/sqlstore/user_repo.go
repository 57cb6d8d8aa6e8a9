package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
	d  dialect
}

func (r *UserRepo) Register(ctx context.Context, u *model.User) error {
	stmt := r.d.insertIgnore + " INTO `users` (`user_id`, `user_name`, `created_at`) VALUES (?, ?, ?)"
	_, err := r.db.ExecContext(ctx, stmt, u.ID, u.Name, u.RegisteredAt.UTC())
	return domain.NewStoreError("register user", err)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT `user_id`, `user_name`, `created_at` FROM `users` WHERE `user_id` = ?", id,
	).Scan(&u.ID, &u.Name, &u.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStoreError("find user", err)
	}
	return &u, nil
}
