package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService resolves customers for sales and manages customer records.
type CustomerService interface {
	// UpsertTx resolves ref to a customer id inside the caller's transaction,
	// matching by email, else by phone, and creating a customer on a miss.
	// It never reports "not found".
	UpsertTx(ctx context.Context, tx pgx.Tx, ref CustomerRef) (uuid.UUID, error)

	Create(ctx context.Context, ref CustomerRef) (*Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, id uuid.UUID, upd CustomerUpdate) (*Customer, error)
	// Deactivate soft-deletes a customer; sales keep referencing the row.
	Deactivate(ctx context.Context, id uuid.UUID) error
	Insights(ctx context.Context) (*CustomerInsights, error)
}

type customerService struct {
	pool *pgxpool.Pool
	seq  SequenceGenerator
}

func NewCustomerService(pool *pgxpool.Pool, seq SequenceGenerator) CustomerService {
	return &customerService{pool: pool, seq: seq}
}

const customerColumns = `id, customer_code, full_name, email, COALESCE(phone, ''), COALESCE(tin, ''),
	total_purchases, total_spent, is_active, last_visit, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.CustomerCode, &c.FullName, &c.Email, &c.Phone, &c.TIN,
		&c.TotalPurchases, &c.TotalSpent, &c.IsActive, &c.LastVisit, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (ref CustomerRef) normalized() CustomerRef {
	return CustomerRef{
		Email:    strings.TrimSpace(ref.Email),
		Phone:    strings.TrimSpace(ref.Phone),
		FullName: strings.TrimSpace(ref.FullName),
		TIN:      strings.TrimSpace(ref.TIN),
	}
}

// placeholderEmail fills the unique email column for customers who gave none.
func placeholderEmail() string {
	return fmt.Sprintf("noemail-%d-%s@pos.local", time.Now().UnixNano(), uuid.NewString()[:8])
}

func (s *customerService) UpsertTx(ctx context.Context, tx pgx.Tx, ref CustomerRef) (uuid.UUID, error) {
	ref = ref.normalized()

	var lookup, key string
	switch {
	case ref.Email != "":
		lookup, key = `SELECT id FROM customers WHERE email = $1 FOR UPDATE`, ref.Email
	case ref.Phone != "":
		lookup, key = `SELECT id FROM customers WHERE phone = $1 ORDER BY created_at LIMIT 1 FOR UPDATE`, ref.Phone
	}

	if lookup != "" {
		var id uuid.UUID
		err := tx.QueryRow(ctx, lookup, key).Scan(&id)
		switch {
		case err == nil:
			// Incoming non-empty fields replace stored ones; empty fields keep them.
			_, err = tx.Exec(ctx, `
				UPDATE customers
				SET full_name = COALESCE(NULLIF($2, ''), full_name),
				    tin = COALESCE(NULLIF($3, ''), tin),
				    phone = COALESCE(NULLIF($4, ''), phone),
				    updated_at = NOW()
				WHERE id = $1
			`, id, ref.FullName, ref.TIN, ref.Phone)
			if err != nil {
				return uuid.Nil, storageError(err, "update customer")
			}
			return id, nil
		case !isNoRows(err):
			return uuid.Nil, fmt.Errorf("failed to look up customer: %w", err)
		}
	}

	code, err := s.seq.NextCodeTx(ctx, tx, EntityCustomer)
	if err != nil {
		return uuid.Nil, err
	}
	email := ref.Email
	if email == "" {
		email = placeholderEmail()
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO customers (customer_code, full_name, email, phone, tin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, code, ref.FullName, email, nullIfEmpty(ref.Phone), nullIfEmpty(ref.TIN)).Scan(&id)
	if err != nil {
		return uuid.Nil, storageError(err, "insert customer")
	}
	return id, nil
}

func (s *customerService) Create(ctx context.Context, ref CustomerRef) (*Customer, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := s.UpsertTx(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("customer", id)
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (s *customerService) List(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	customers, err := collectRows(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return customers, nil
}

func (s *customerService) Update(ctx context.Context, id uuid.UUID, upd CustomerUpdate) (*Customer, error) {
	if upd.Email != nil && strings.TrimSpace(*upd.Email) == "" {
		return nil, validationError("email", "email must not be empty")
	}
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		UPDATE customers
		SET full_name = COALESCE($2, full_name),
		    email = COALESCE($3, email),
		    phone = COALESCE($4, phone),
		    tin = COALESCE($5, tin),
		    is_active = COALESCE($6, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+customerColumns,
		id, upd.FullName, upd.Email, upd.Phone, upd.TIN, upd.IsActive))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("customer", id)
		}
		return nil, storageError(err, "update customer")
	}
	return c, nil
}

func (s *customerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE customers SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate customer")
	}
	if tag.RowsAffected() == 0 {
		return notFound("customer", id)
	}
	return nil
}

func (s *customerService) Insights(ctx context.Context) (*CustomerInsights, error) {
	in := &CustomerInsights{}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days')
		FROM customers
	`).Scan(&in.TotalCustomers, &in.ActiveCustomers, &in.NewLast30Days)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE is_active
		ORDER BY total_spent DESC, created_at
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top customers: %w", err)
	}
	in.TopCustomers, err = collectRows(rows, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("failed to scan customer: %w", err)
	}
	return in, nil
}
