package model

import (
	"time"

	"slack-gpt-sessions/internal/domain"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAssistant }

// DefaultHistoryLimit bounds the context window sent to the completion API.
const DefaultHistoryLimit = 10

// Turn is one role-tagged message within a session. SessionID is the Slack
// thread timestamp; Seq is assigned by the store on insert and is strictly
// increasing in insertion order.
type Turn struct {
	Seq       int64
	SessionID string
	UserID    string
	Role      Role
	Content   string
	CreatedAt time.Time
}

func NewTurn(sessionID, userID string, role Role, content string) (*Turn, error) {
	if sessionID == "" || userID == "" || !role.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	return &Turn{
		SessionID: sessionID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// Chronological turns a newest-first slice (as read with ORDER BY seq DESC)
// into oldest-first order. The input is left untouched.
func Chronological(newestFirst []Turn) []Turn {
	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(newestFirst)-1-i] = t
	}
	return out
}
