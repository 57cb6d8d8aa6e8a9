package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.TurnRepository = (*TurnRepo)(nil)

type TurnRepo struct {
	pool *pgxpool.Pool
}

func NewTurnRepo(pool *pgxpool.Pool) *TurnRepo {
	return &TurnRepo{pool: pool}
}

func (r *TurnRepo) Append(ctx context.Context, t *model.Turn) error {
	const q = `
INSERT INTO session (session_id, user_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING rid;`
	if err := r.pool.QueryRow(ctx, q, t.SessionID, t.UserID, string(t.Role), t.Content, t.CreatedAt).Scan(&t.Seq); err != nil {
		return wrap("append turn", err)
	}
	return nil
}

func (r *TurnRepo) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	const q = `
SELECT rid, session_id, user_id, role, content, created_at
  FROM session
 WHERE session_id=$1
 ORDER BY rid DESC
 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, wrap("recent turns", err)
	}
	defer rows.Close()

	var newestFirst []model.Turn
	for rows.Next() {
		var t model.Turn
		var role string
		if err := rows.Scan(&t.Seq, &t.SessionID, &t.UserID, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, wrap("scan turn", err)
		}
		t.Role = model.Role(role)
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("recent turns", err)
	}
	return model.Chronological(newestFirst), nil
}
