package usecase

import (
	"context"
	"errors"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
	"slack-gpt-sessions/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user registration used by the start command.
type UserUseCase interface {
	// Register records the user. Registering an existing id is not an error;
	// created reports whether a new row was written.
	Register(ctx context.Context, userID, userName string) (u *model.User, created bool, err error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		log:   logger,
	}
}

func (u *userUC) Register(ctx context.Context, userID, userName string) (*model.User, bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()
	log := logging.With(ctx, u.log)

	usr, err := model.NewUser(userID, userName)
	if err != nil {
		return nil, false, err
	}
	_, err = u.users.FindByID(ctx, usr.ID)
	switch {
	case err == nil:
		log.Debug().Str("user_id", userID).Msg("user already registered")
		return usr, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		log.Error().Err(err).Str("user_id", userID).Msg("lookup user")
		return nil, false, err
	}
	if err := u.users.Register(ctx, usr); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("register user")
		return nil, false, err
	}
	return usr, true, nil
}
