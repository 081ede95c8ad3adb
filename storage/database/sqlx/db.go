package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/coastwrpt/wrpt/core"
)

// Executor is satisfied by both *sqlx.DB and *sqlx.Tx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

const (
	uniqueViolation = "23505"
	invalidTextRepr = "22P02" // e.g. a malformed uuid: nothing can match it
)

// dbError maps driver errors onto the core sentinel errors.
func dbError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return core.ErrConflict
		case invalidTextRepr:
			return core.ErrNotFound
		}
	}
	return errors.Wrap(err, msg)
}

// mustAffect returns core.ErrNotFound when a write touched no row.
func mustAffect(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
