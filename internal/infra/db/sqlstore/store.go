// Package sqlstore implements the session store over database/sql for the
// MySQL and SQLite drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"slack-gpt-sessions/internal/domain"
	"slack-gpt-sessions/internal/domain/ports/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db     *sql.DB
	d      dialect
	users  *UserRepo
	turns  *TurnRepo
	tokens *TokenRepo
}

// Open connects with driver ("mysql" or "sqlite") and verifies the connection.
func Open(ctx context.Context, driver, dsn string, maxConns int) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	switch {
	case driver == "sqlite":
		// one writer keeps sqlite free of SQLITE_BUSY and keeps :memory: on one connection
		db.SetMaxOpenConns(1)
	case maxConns > 0:
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return newStore(db, d), nil
}

func newStore(db *sql.DB, d dialect) *Store {
	return &Store{
		db:     db,
		d:      d,
		users:  &UserRepo{db: db, d: d},
		turns:  &TurnRepo{db: db},
		tokens: &TokenRepo{db: db},
	}
}

func (s *Store) Users() repository.UserRepository   { return s.users }
func (s *Store) Turns() repository.TurnRepository   { return s.turns }
func (s *Store) Tokens() repository.TokenRepository { return s.tokens }

func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return domain.NewStoreError("ensure schema", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return domain.NewStoreError("ping", s.db.PingContext(ctx))
}

func (s *Store) Stats() repository.PoolStats {
	st := s.db.Stats()
	return repository.PoolStats{
		Total: int32(st.OpenConnections),
		Idle:  int32(st.Idle),
		InUse: int32(st.InUse),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
