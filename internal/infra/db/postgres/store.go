package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.Store = (*Store)(nil)

// Store bundles the Postgres repositories over one pool.
type Store struct {
	pool   *pgxpool.Pool
	users  *UserRepo
	turns  *TurnRepo
	tokens *TokenRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:   pool,
		users:  NewUserRepo(pool),
		turns:  NewTurnRepo(pool),
		tokens: NewTokenRepo(pool),
	}
}

func (s *Store) Users() repository.UserRepository   { return s.users }
func (s *Store) Turns() repository.TurnRepository   { return s.turns }
func (s *Store) Tokens() repository.TokenRepository { return s.tokens }

func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return wrap("ensure schema", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return wrap("ping", err)
	}
	defer conn.Release()
	return wrap("ping", conn.Conn().Ping(ctx))
}

func (s *Store) Stats() repository.PoolStats {
	st := s.pool.Stat()
	return repository.PoolStats{
		Total: st.TotalConns(),
		Idle:  st.IdleConns(),
		InUse: st.AcquiredConns(),
	}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
