package model

import (
	"strings"
	"time"

	"slack-gpt-sessions/internal/domain"
)

// User is a Slack member who invoked the start command in the focus channel.
type User struct {
	ID           string
	Name         string
	RegisteredAt time.Time
}

func NewUser(id, name string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:           id,
		Name:         name,
		RegisteredAt: time.Now(),
	}, nil
}
