package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SaleStatus is the lifecycle state shared by a sale and its items.
//
//	ACTIVE → DELETED
//
// There is no way back; a deleted sale is never resurrected.
type SaleStatus string

const (
	SaleStatusActive  SaleStatus = "ACTIVE"
	SaleStatusDeleted SaleStatus = "DELETED"
)

// CanTransition reports whether a sale in status s may move to next.
func (s SaleStatus) CanTransition(next SaleStatus) bool {
	return s == SaleStatusActive && next == SaleStatusDeleted
}

// Role is a user's authorisation level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier:
		return true
	}
	return false
}

// nullIfEmpty maps "" to SQL NULL for optional text columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// stringOrEmpty dereferences a scanned nullable text column.
func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// collectRows scans every row with scan and closes rows.
func collectRows[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
