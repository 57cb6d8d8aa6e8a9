package sqlstore

import (
	"context"
	"database/sql"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.TurnRepository = (*TurnRepo)(nil)

type TurnRepo struct {
	db *sql.DB
}

func (r *TurnRepo) Append(ctx context.Context, t *model.Turn) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO `session` (`session_id`, `user_id`, `role`, `content`, `created_at`) VALUES (?, ?, ?, ?, ?)",
		t.SessionID, t.UserID, string(t.Role), t.Content, t.CreatedAt.UTC(),
	)
	if err != nil {
		return domain.NewStoreError("append turn", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.NewStoreError("append turn", err)
	}
	t.Seq = id
	return nil
}

func (r *TurnRepo) Recent(ctx context.Context, sessionID string, limit int) ([]model.Turn, error) {
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT `rid`, `session_id`, `user_id`, `role`, `content`, `created_at` FROM `session` "+
			"WHERE `session_id` = ? ORDER BY `rid` DESC LIMIT ?",
		sessionID, limit,
	)
	if err != nil {
		return nil, domain.NewStoreError("recent turns", err)
	}
	defer rows.Close()

	var newestFirst []model.Turn
	for rows.Next() {
		var t model.Turn
		var role string
		if err := rows.Scan(&t.Seq, &t.SessionID, &t.UserID, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, domain.NewStoreError("scan turn", err)
		}
		t.Role = model.Role(role)
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("recent turns", err)
	}
	return model.Chronological(newestFirst), nil
}
