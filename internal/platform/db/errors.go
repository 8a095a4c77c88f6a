package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ShubhamKarampure/HealthyTray/internal/platform/apperr"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Classify converts a pgx error into an apperr kind. notFound is the message
// used when no row matched.
func Classify(err error, op, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &apperr.Error{Kind: apperr.KindConflict, Msg: op + ": duplicate " + pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return &apperr.Error{Kind: apperr.KindNotFound, Msg: op + ": referenced record not found", Err: err}
		case pgCheckViolation:
			return &apperr.Error{Kind: apperr.KindValidation, Msg: op + ": " + pgErr.ConstraintName + " violated", Err: err}
		}
	}
	return apperr.Store(op, err)
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
