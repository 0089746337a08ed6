package core

import (
	"errors"
	"fmt"
	"strings"

	"pos-backend/internal/db"
)

// Error categories. Callers test with errors.Is; DomainError carries the detail.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownReference  = errors.New("unknown reference")
	ErrDuplicate         = errors.New("duplicate value")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// DomainError is a categorised, user-correctable error. Message is safe to show to API callers.
type DomainError struct {
	Err     error
	Field   string
	Message string
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error { return e.Err }

func newDomainError(kind error, field, format string, args ...any) *DomainError {
	return &DomainError{Err: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func validationError(field, format string, args ...any) error {
	return newDomainError(ErrValidation, field, format, args...)
}

func notFound(what string, id any) error {
	return newDomainError(ErrNotFound, "", "%s %v not found", what, id)
}

// storageError maps typed storage errors onto domain categories. Anything
// unclassified is wrapped as a plain persistence failure.
func storageError(err error, action string) error {
	err = db.Classify(err)

	var uv *db.UniqueViolation
	if errors.As(err, &uv) {
		field := constraintField(uv.Constraint)
		return &DomainError{Err: ErrDuplicate, Field: field, Message: fmt.Sprintf("%s already exists", field)}
	}
	var fk *db.ForeignKeyViolation
	if errors.As(err, &fk) {
		field := constraintField(fk.Constraint)
		return &DomainError{Err: ErrUnknownReference, Field: field, Message: fmt.Sprintf("referenced %s does not exist or is still in use", field)}
	}
	var cv *db.CheckViolation
	if errors.As(err, &cv) {
		return &DomainError{Err: ErrValidation, Field: constraintField(cv.Constraint), Message: fmt.Sprintf("value rejected by constraint %s", cv.Constraint)}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

var constraintTables = []string{
	"price_history_", "sale_items_", "categories_", "customers_", "suppliers_",
	"products_", "stores_", "sales_", "users_",
}

// constraintField recovers the column from PostgreSQL's default constraint
// names, e.g. "customers_email_key" -> "email".
func constraintField(constraint string) string {
	name := constraint
	for _, suffix := range []string{"_fkey", "_key", "_check"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	for _, prefix := range constraintTables {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	if name == "" {
		return "value"
	}
	return name
}
