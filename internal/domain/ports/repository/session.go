package repository

import (
	"context"

	"slack-gpt-sessions/internal/domain/model"
)

// -----------------------------
// Session turns
// -----------------------------

type TurnRepository interface {
	// Append inserts the turn and sets t.Seq to the store-assigned sequence.
	Append(ctx context.Context, t *model.Turn) error
	// Recent returns at most limit turns of the session, oldest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error)
}
