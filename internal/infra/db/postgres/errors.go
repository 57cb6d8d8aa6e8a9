package postgres

import (
	"errors"

	"github.com/jackc/pgconn"

	"slack-gpt-sessions/internal/domain"
)

// wrap tags err as a store failure, keeping the SQLSTATE in the op when the
// server reported one.
func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		op = op + " [" + pgErr.Code + "]"
	}
	return domain.NewStoreError(op, err)
}
