package repository

import "context"

// -----------------------------
// Token usage counter
// -----------------------------

type TokenRepository interface {
	// Increment atomically adds delta to the single running total.
	Increment(ctx context.Context, delta int64) error
	Total(ctx context.Context) (int64, error)
}
