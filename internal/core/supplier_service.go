package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SupplierService interface {
	Create(ctx context.Context, sup Supplier) (*Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
	Update(ctx context.Context, id uuid.UUID, sup Supplier) (*Supplier, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type supplierService struct {
	pool *pgxpool.Pool
}

func NewSupplierService(pool *pgxpool.Pool) SupplierService {
	return &supplierService{pool: pool}
}

const supplierColumns = `id, name, COALESCE(contact_person, ''), COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(address, ''), COALESCE(payment_terms, ''), is_active, created_at, updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	s := &Supplier{}
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.PaymentTerms,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *supplierService) Create(ctx context.Context, sup Supplier) (*Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return nil, validationError("name", "name is required")
	}
	out, err := scanSupplier(s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, email, phone, address, payment_terms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+supplierColumns,
		strings.TrimSpace(sup.Name), nullIfEmpty(sup.ContactPerson), nullIfEmpty(sup.Email),
		nullIfEmpty(sup.Phone), nullIfEmpty(sup.Address), nullIfEmpty(sup.PaymentTerms)))
	if err != nil {
		return nil, storageError(err, "insert supplier")
	}
	return out, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	out, err := scanSupplier(s.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("supplier", id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return out, nil
}

func (s *supplierService) List(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	suppliers, err := collectRows(rows, scanSupplier)
	if err != nil {
		return nil, fmt.Errorf("failed to scan supplier: %w", err)
	}
	return suppliers, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, sup Supplier) (*Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return nil, validationError("name", "name is required")
	}
	out, err := scanSupplier(s.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2, contact_person = $3, email = $4, phone = $5, address = $6,
		    payment_terms = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+supplierColumns,
		id, strings.TrimSpace(sup.Name), nullIfEmpty(sup.ContactPerson), nullIfEmpty(sup.Email),
		nullIfEmpty(sup.Phone), nullIfEmpty(sup.Address), nullIfEmpty(sup.PaymentTerms)))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("supplier", id)
		}
		return nil, storageError(err, "update supplier")
	}
	return out, nil
}

func (s *supplierService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE suppliers SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate supplier")
	}
	if tag.RowsAffected() == 0 {
		return notFound("supplier", id)
	}
	return nil
}
