package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the storage layer classifies.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// ErrNoRows is returned by Classify when a query matched nothing.
var ErrNoRows = errors.New("no rows")

// UniqueViolation reports an insert or update that collided with a unique constraint.
type UniqueViolation struct {
	Constraint string
	Err        error
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

func (e *UniqueViolation) Unwrap() error { return e.Err }

// ForeignKeyViolation reports a reference to a row that does not exist,
// or a delete of a row that is still referenced.
type ForeignKeyViolation struct {
	Constraint string
	Err        error
}

func (e *ForeignKeyViolation) Error() string {
	return fmt.Sprintf("foreign key constraint %q violated", e.Constraint)
}

func (e *ForeignKeyViolation) Unwrap() error { return e.Err }

// CheckViolation reports a row that failed a CHECK constraint, for example
// a stock level going negative.
type CheckViolation struct {
	Constraint string
	Err        error
}

func (e *CheckViolation) Error() string {
	return fmt.Sprintf("check constraint %q violated", e.Constraint)
}

func (e *CheckViolation) Unwrap() error { return e.Err }

// Classify converts driver errors into the typed errors above. Errors it does
// not recognise are returned unchanged; nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNoRows, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return &UniqueViolation{Constraint: pgErr.ConstraintName, Err: err}
	case codeForeignKeyViolation:
		return &ForeignKeyViolation{Constraint: pgErr.ConstraintName, Err: err}
	case codeCheckViolation:
		return &CheckViolation{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}

// IsUniqueViolation reports whether err is, or wraps, a unique violation.
func IsUniqueViolation(err error) bool {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
