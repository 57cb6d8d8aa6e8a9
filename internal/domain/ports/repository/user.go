package repository

import (
	"context"

	"slack-gpt-sessions/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Register inserts the user; an existing id is left untouched and is not an error.
	Register(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
}
