package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoreService manages selling locations. Stores referenced by sales are
// deactivated, never deleted.
type StoreService interface {
	Create(ctx context.Context, st Store) (*Store, error)
	Get(ctx context.Context, id uuid.UUID) (*Store, error)
	List(ctx context.Context) ([]Store, error)
	Update(ctx context.Context, id uuid.UUID, st Store) (*Store, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type storeService struct {
	pool *pgxpool.Pool
}

func NewStoreService(pool *pgxpool.Pool) StoreService {
	return &storeService{pool: pool}
}

const storeColumns = `id, name, COALESCE(address, ''), COALESCE(phone, ''), COALESCE(email, ''),
	tax_rate, currency, timezone, is_active, created_at, updated_at`

func scanStore(row pgx.Row) (*Store, error) {
	st := &Store{}
	err := row.Scan(&st.ID, &st.Name, &st.Address, &st.Phone, &st.Email, &st.TaxRate, &st.Currency,
		&st.Timezone, &st.IsActive, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (st Store) normalized() (Store, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return st, validationError("name", "name is required")
	}
	if st.TaxRate.IsNegative() {
		return st, validationError("tax_rate", "tax_rate must not be negative")
	}
	if st.Currency == "" {
		st.Currency = "USD"
	}
	if st.Timezone == "" {
		st.Timezone = "UTC"
	}
	return st, nil
}

func (s *storeService) Create(ctx context.Context, st Store) (*Store, error) {
	st, err := st.normalized()
	if err != nil {
		return nil, err
	}
	out, err := scanStore(s.pool.QueryRow(ctx, `
		INSERT INTO stores (name, address, phone, email, tax_rate, currency, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+storeColumns,
		st.Name, nullIfEmpty(st.Address), nullIfEmpty(st.Phone), nullIfEmpty(st.Email),
		st.TaxRate, st.Currency, st.Timezone))
	if err != nil {
		return nil, storageError(err, "insert store")
	}
	return out, nil
}

func (s *storeService) Get(ctx context.Context, id uuid.UUID) (*Store, error) {
	out, err := scanStore(s.pool.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("store", id)
		}
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	return out, nil
}

func (s *storeService) List(ctx context.Context) ([]Store, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	stores, err := collectRows(rows, scanStore)
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	return stores, nil
}

func (s *storeService) Update(ctx context.Context, id uuid.UUID, st Store) (*Store, error) {
	st, err := st.normalized()
	if err != nil {
		return nil, err
	}
	out, err := scanStore(s.pool.QueryRow(ctx, `
		UPDATE stores
		SET name = $2, address = $3, phone = $4, email = $5, tax_rate = $6, currency = $7,
		    timezone = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+storeColumns,
		id, st.Name, nullIfEmpty(st.Address), nullIfEmpty(st.Phone), nullIfEmpty(st.Email),
		st.TaxRate, st.Currency, st.Timezone))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("store", id)
		}
		return nil, storageError(err, "update store")
	}
	return out, nil
}

func (s *storeService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE stores SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate store")
	}
	if tag.RowsAffected() == 0 {
		return notFound("store", id)
	}
	return nil
}
