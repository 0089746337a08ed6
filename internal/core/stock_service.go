package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StockLine is one requested product quantity.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockSnapshot is a product row as locked by CheckTx.
type StockSnapshot struct {
	ProductID    uuid.UUID
	Name         string
	SKU          string
	Barcode      string
	CurrentStock int
}

// StockService validates and moves product stock. Every method works inside
// a caller-provided transaction; stock is never changed outside a sale or its reversal.
type StockService interface {
	// CheckTx locks the referenced products and verifies that each has enough
	// stock for the summed quantity requested across all lines.
	CheckTx(ctx context.Context, tx pgx.Tx, lines []StockLine) (map[uuid.UUID]StockSnapshot, error)
	// DecrementTx removes qty units, failing rather than going below zero.
	DecrementTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) error
	// RestoreTx returns qty units to stock.
	RestoreTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) error
}

type stockService struct{}

func NewStockService() StockService {
	return &stockService{}
}

// aggregateLines sums quantities per product and orders products by id, so
// every transaction takes row locks in the same order.
func aggregateLines(lines []StockLine) ([]uuid.UUID, map[uuid.UUID]int) {
	totals := make(map[uuid.UUID]int, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, seen := totals[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		totals[l.ProductID] += l.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids, totals
}

func (s *stockService) CheckTx(ctx context.Context, tx pgx.Tx, lines []StockLine) (map[uuid.UUID]StockSnapshot, error) {
	ids, required := aggregateLines(lines)

	snapshots := make(map[uuid.UUID]StockSnapshot, len(ids))
	for _, id := range ids {
		var snap StockSnapshot
		var sku, barcode *string
		var active bool
		err := tx.QueryRow(ctx, `
			SELECT id, name, sku, barcode, current_stock, is_active
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, id).Scan(&snap.ProductID, &snap.Name, &sku, &barcode, &snap.CurrentStock, &active)
		if err != nil {
			if isNoRows(err) {
				return nil, newDomainError(ErrUnknownReference, "product_id", "product %s does not exist", id)
			}
			return nil, fmt.Errorf("failed to lock product %s: %w", id, err)
		}
		if !active {
			return nil, newDomainError(ErrUnknownReference, "product_id", "product %s (%s) is inactive", snap.Name, id)
		}
		if sku != nil {
			snap.SKU = *sku
		}
		if barcode != nil {
			snap.Barcode = *barcode
		}

		if snap.CurrentStock < required[id] {
			return nil, newDomainError(ErrInsufficientStock, "quantity",
				"insufficient stock for product %s: available %d, required %d",
				snap.Name, snap.CurrentStock, required[id])
		}
		snapshots[id] = snap
	}
	return snapshots, nil
}

func (s *stockService) DecrementTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET current_stock = current_stock - $1, updated_at = NOW()
		WHERE id = $2 AND current_stock >= $1
	`, qty, productID)
	if err != nil {
		return storageError(err, "decrement stock")
	}
	if tag.RowsAffected() == 0 {
		return newDomainError(ErrInsufficientStock, "quantity", "insufficient stock for product %s", productID)
	}
	return nil
}

func (s *stockService) RestoreTx(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET current_stock = current_stock + $1, updated_at = NOW()
		WHERE id = $2
	`, qty, productID)
	if err != nil {
		return storageError(err, "restore stock")
	}
	if tag.RowsAffected() == 0 {
		return newDomainError(ErrUnknownReference, "product_id", "product %s does not exist", productID)
	}
	return nil
}
