package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultPaymentStatus = "paid"

// SaleService records sales atomically and reverses them.
type SaleService interface {
	// CreateSale validates the request, then in one transaction checks the
	// user, locks and checks stock, resolves the customer, numbers and inserts
	// the sale and its items, decrements stock and updates customer totals.
	// On any error nothing is persisted.
	CreateSale(ctx context.Context, in CreateSaleInput) (*SaleConfirmation, error)

	// DeleteSale restores stock for every active item, marks the sale and its
	// items DELETED and reverses the customer totals. A missing or already
	// deleted sale returns ErrNotFound and changes nothing.
	DeleteSale(ctx context.Context, id uuid.UUID) error

	// UpdateSale changes payment status and notes of an ACTIVE sale. A deleted
	// sale returns ErrInvalidTransition.
	UpdateSale(ctx context.Context, id uuid.UUID, upd SaleUpdate) (*SaleDetail, error)

	GetSale(ctx context.Context, id uuid.UUID) (*SaleDetail, error)
	ListSales(ctx context.Context, f SaleFilter) ([]Sale, error)
	GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error)
	ListSaleItems(ctx context.Context) ([]SaleItem, error)
	GetSaleItem(ctx context.Context, id uuid.UUID) (*SaleItem, error)
}

type saleService struct {
	pool      *pgxpool.Pool
	seq       SequenceGenerator
	customers CustomerService
	stock     StockService

	tracer  trace.Tracer
	created metric.Int64Counter
	failed  metric.Int64Counter
	deleted metric.Int64Counter
}

func NewSaleService(pool *pgxpool.Pool, seq SequenceGenerator, customers CustomerService, stock StockService) SaleService {
	s := &saleService{
		pool:      pool,
		seq:       seq,
		customers: customers,
		stock:     stock,
		tracer:    otel.Tracer("pos-backend/core"),
	}
	meter := otel.Meter("pos-backend/core")
	var err error
	if s.created, err = meter.Int64Counter("pos.sales.created"); err != nil {
		log.Printf("warning: sale metrics unavailable: %v", err)
	}
	if s.failed, err = meter.Int64Counter("pos.sales.failed"); err != nil {
		log.Printf("warning: sale metrics unavailable: %v", err)
	}
	if s.deleted, err = meter.Int64Counter("pos.sales.deleted"); err != nil {
		log.Printf("warning: sale metrics unavailable: %v", err)
	}
	return s
}

func (s *saleService) CreateSale(ctx context.Context, in CreateSaleInput) (*SaleConfirmation, error) {
	ctx, span := s.tracer.Start(ctx, "sale.create", trace.WithAttributes(
		attribute.Int("sale.items", len(in.Items)),
	))
	defer span.End()

	conf, err := s.createSale(ctx, in)
	if err != nil {
		reason := failureReason(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		if s.failed != nil {
			s.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("sale.number", conf.SaleNumber))
	if s.created != nil {
		s.created.Add(ctx, 1)
	}
	return conf, nil
}

func (s *saleService) createSale(ctx context.Context, in CreateSaleInput) (*SaleConfirmation, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	h := in.Sale
	if h.UserID != nil {
		if err := requireActive(ctx, tx, "users", *h.UserID, "referenced user does not exist"); err != nil {
			return nil, err
		}
	}
	if h.StoreID != nil {
		if err := requireActive(ctx, tx, "stores", *h.StoreID, "referenced store does not exist"); err != nil {
			return nil, err
		}
	}

	lines := make([]StockLine, len(in.Items))
	for i, item := range in.Items {
		lines[i] = StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	snapshots, err := s.stock.CheckTx(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	customerID, err := s.customers.UpsertTx(ctx, tx, in.Customer)
	if err != nil {
		return nil, err
	}

	saleNumber, err := s.seq.NextCodeTx(ctx, tx, EntitySale)
	if err != nil {
		return nil, err
	}

	paymentStatus := h.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = defaultPaymentStatus
	}

	var saleID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO sales (sale_number, customer_id, user_id, store_id, subtotal, tax_amount,
		                   discount_amount, total_amount, payment_method, payment_status, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, saleNumber, customerID, h.UserID, h.StoreID, h.Subtotal, h.TaxAmount,
		h.DiscountAmount, h.TotalAmount, h.PaymentMethod, paymentStatus, nullIfEmpty(h.Notes),
		string(SaleStatusActive)).Scan(&saleID)
	if err != nil {
		return nil, storageError(err, "insert sale")
	}

	totalQty := 0
	for _, item := range in.Items {
		snap := snapshots[item.ProductID]
		_, err := tx.Exec(ctx, `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, discount_amount, line_total,
			                        product_name, product_sku, product_barcode, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, saleID, item.ProductID, item.Quantity, item.UnitPrice, item.DiscountAmount, item.lineTotal(),
			firstNonEmpty(snap.Name, item.ProductName),
			nullIfEmpty(firstNonEmpty(snap.SKU, item.ProductSKU)),
			nullIfEmpty(firstNonEmpty(snap.Barcode, item.ProductBarcode)),
			string(SaleStatusActive))
		if err != nil {
			return nil, storageError(err, "insert sale item")
		}
		if err := s.stock.DecrementTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
		totalQty += item.Quantity
	}

	_, err = tx.Exec(ctx, `
		UPDATE customers
		SET total_purchases = total_purchases + $2,
		    total_spent = total_spent + $3,
		    last_visit = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`, customerID, totalQty, h.TotalAmount)
	if err != nil {
		return nil, storageError(err, "update customer totals")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return &SaleConfirmation{SaleID: saleID, SaleNumber: saleNumber}, nil
}

// requireActive checks that table has an active row with the given id.
// table is always a package constant, never caller input.
func requireActive(ctx context.Context, q pgxQuerier, table string, id uuid.UUID, message string) error {
	var active bool
	err := q.QueryRow(ctx, "SELECT is_active FROM "+table+" WHERE id = $1", id).Scan(&active)
	if err != nil {
		if isNoRows(err) {
			return newDomainError(ErrUnknownReference, strings.TrimSuffix(table, "s")+"_id", "%s", message)
		}
		return fmt.Errorf("failed to look up %s: %w", table, err)
	}
	if !active {
		return newDomainError(ErrUnknownReference, strings.TrimSuffix(table, "s")+"_id", "%s", message)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// failureReason labels an error for metrics and span status.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrUnknownReference):
		return "unknown_reference"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}

func (s *saleService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "sale.delete", trace.WithAttributes(attribute.String("sale.id", id.String())))
	defer span.End()

	if err := s.deleteSale(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, failureReason(err))
		return err
	}
	if s.deleted != nil {
		s.deleted.Add(ctx, 1)
	}
	return nil
}

func (s *saleService) deleteSale(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status SaleStatus
	var customerID uuid.UUID
	var total decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT status, customer_id, total_amount
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&status, &customerID, &total)
	if err != nil {
		if isNoRows(err) {
			return notFound("sale", id)
		}
		return fmt.Errorf("failed to lock sale: %w", err)
	}
	if !status.CanTransition(SaleStatusDeleted) {
		return newDomainError(ErrNotFound, "", "sale %s not found or already deleted", id)
	}

	lines, err := activeItemLines(ctx, tx, id)
	if err != nil {
		return err
	}
	productIDs, quantities := aggregateLines(lines)
	totalQty := 0
	for _, pid := range productIDs {
		if err := s.stock.RestoreTx(ctx, tx, pid, quantities[pid]); err != nil {
			return err
		}
		totalQty += quantities[pid]
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sale_items SET status = $2 WHERE sale_id = $1 AND status = $3
	`, id, string(SaleStatusDeleted), string(SaleStatusActive)); err != nil {
		return fmt.Errorf("failed to deactivate sale items: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE sales SET status = $2, deleted_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id, string(SaleStatusDeleted)); err != nil {
		return fmt.Errorf("failed to deactivate sale: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE customers
		SET total_purchases = GREATEST(total_purchases - $2, 0),
		    total_spent = GREATEST(total_spent - $3, 0),
		    updated_at = NOW()
		WHERE id = $1
	`, customerID, totalQty, total); err != nil {
		return fmt.Errorf("failed to reverse customer totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit sale deletion: %w", err)
	}
	return nil
}

func (s *saleService) UpdateSale(ctx context.Context, id uuid.UUID, upd SaleUpdate) (*SaleDetail, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	var paymentStatus *string
	if upd.PaymentStatus != nil {
		v := strings.TrimSpace(*upd.PaymentStatus)
		paymentStatus = &v
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var status SaleStatus
	err = tx.QueryRow(ctx, `SELECT status FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("sale", id)
		}
		return nil, fmt.Errorf("failed to lock sale: %w", err)
	}
	if status != SaleStatusActive {
		return nil, newDomainError(ErrInvalidTransition, "", "sale %s is deleted and cannot be changed", id)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE sales
		SET payment_status = COALESCE($2, payment_status),
		    notes = COALESCE($3, notes),
		    updated_at = NOW()
		WHERE id = $1
	`, id, paymentStatus, upd.Notes); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sale update: %w", err)
	}
	return s.GetSale(ctx, id)
}

// activeItemLines reads every active item before any stock is touched; pgx
// cannot run statements on a connection while a result set is open.
func activeItemLines(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) ([]StockLine, error) {
	rows, err := tx.Query(ctx, `
		SELECT product_id, quantity FROM sale_items WHERE sale_id = $1 AND status = $2
	`, saleID, string(SaleStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to read sale items: %w", err)
	}
	defer rows.Close()

	var lines []StockLine
	for rows.Next() {
		var l StockLine
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sale items: %w", err)
	}
	return lines, nil
}

const saleColumns = `s.id, s.sale_number, s.customer_id, c.full_name, s.user_id, s.store_id, s.sale_date,
	s.subtotal, s.tax_amount, s.discount_amount, s.total_amount, s.payment_method, s.payment_status,
	COALESCE(s.notes, ''), s.status, s.deleted_at, s.created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	sale := &Sale{}
	err := row.Scan(&sale.ID, &sale.SaleNumber, &sale.CustomerID, &sale.CustomerName, &sale.UserID,
		&sale.StoreID, &sale.SaleDate, &sale.Subtotal, &sale.TaxAmount, &sale.DiscountAmount,
		&sale.TotalAmount, &sale.PaymentMethod, &sale.PaymentStatus, &sale.Notes, &sale.Status,
		&sale.DeletedAt, &sale.CreatedAt)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

const saleItemColumns = `id, sale_id, product_id, quantity, unit_price, discount_amount, line_total,
	product_name, COALESCE(product_sku, ''), COALESCE(product_barcode, ''), status, created_at`

func scanSaleItem(row pgx.Row) (*SaleItem, error) {
	it := &SaleItem{}
	err := row.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.DiscountAmount,
		&it.LineTotal, &it.ProductName, &it.ProductSKU, &it.ProductBarcode, &it.Status, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*SaleDetail, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, `
		SELECT `+saleColumns+`
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = $1
	`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("sale", id)
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	items, err := s.GetSaleItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SaleDetail{Sale: *sale, Items: items}, nil
}

func (s *saleService) ListSales(ctx context.Context, f SaleFilter) ([]Sale, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("s.status = $%d", string(f.Status))
	}
	if f.From != nil {
		add("s.created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("s.created_at <= $%d", *f.To)
	}

	query := `SELECT ` + saleColumns + ` FROM sales s JOIN customers c ON c.id = s.customer_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.created_at DESC, s.sale_number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	sales, err := collectRows(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sale: %w", err)
	}
	return sales, nil
}

func (s *saleService) GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+saleItemColumns+`
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY created_at, id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	items, err := collectRows(rows, scanSaleItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sale item: %w", err)
	}
	return items, nil
}

func (s *saleService) ListSaleItems(ctx context.Context) ([]SaleItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+saleItemColumns+`
		FROM sale_items
		ORDER BY created_at DESC
		LIMIT 1000
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	items, err := collectRows(rows, scanSaleItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sale item: %w", err)
	}
	return items, nil
}

func (s *saleService) GetSaleItem(ctx context.Context, id uuid.UUID) (*SaleItem, error) {
	it, err := scanSaleItem(s.pool.QueryRow(ctx, `SELECT `+saleItemColumns+` FROM sale_items WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("sale item", id)
		}
		return nil, fmt.Errorf("failed to get sale item: %w", err)
	}
	return it, nil
}
