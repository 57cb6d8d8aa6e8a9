package postgres

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    TEXT PRIMARY KEY,
		user_name  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS session (
		rid        BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_session_session_rid ON session (session_id, rid DESC)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id          SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
		token_count BIGINT NOT NULL DEFAULT 0 CHECK (token_count >= 0)
	)`,
	`INSERT INTO tokens (id, token_count) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`,
}
