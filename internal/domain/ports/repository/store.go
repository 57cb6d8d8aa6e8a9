package repository

import "context"

// PoolStats is a driver-agnostic snapshot of the connection pool.
type PoolStats struct {
	Total int32
	Idle  int32
	InUse int32
}

// Store bundles the repositories of one database backend.
type Store interface {
	Users() UserRepository
	Turns() TurnRepository
	Tokens() TokenRepository

	// EnsureSchema creates missing tables and seeds the token counter row.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Stats() PoolStats
	Close() error
}
