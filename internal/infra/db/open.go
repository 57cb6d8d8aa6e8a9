// Package db selects the session store backend from configuration.
package db

import (
	"context"
	"fmt"

	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/domain/ports/repository"
	"slack-gpt-sessions/internal/infra/db/postgres"
	"slack-gpt-sessions/internal/infra/db/sqlstore"
)

// Open connects to the configured driver. The schema is not touched.
func Open(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.DSN(), cfg.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return postgres.NewStore(pool), nil
	case "mysql", "sqlite":
		s, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN(), cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
