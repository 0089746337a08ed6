package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPriceChangeReason = "Price update"

// ProductService manages the product catalog. Stock is changed here only by
// explicit catalog edits; sales go through StockService.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByNumber(ctx context.Context, productNumber string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	// Update applies a partial update and records a price history row when
	// the selling price changes, in the same transaction.
	Update(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	PriceHistory(ctx context.Context, id uuid.UUID) ([]PriceChange, error)
	Inventory(ctx context.Context) ([]InventoryItem, error)
	LowStock(ctx context.Context) ([]InventoryItem, error)
}

type productService struct {
	pool *pgxpool.Pool
	seq  SequenceGenerator
}

func NewProductService(pool *pgxpool.Pool, seq SequenceGenerator) ProductService {
	return &productService{pool: pool, seq: seq}
}

const productColumns = `id, product_number, name, COALESCE(description, ''), category_id, supplier_id,
	cost_price, selling_price, current_stock, min_stock_level, max_stock_level, reorder_point,
	reorder_quantity, COALESCE(barcode, ''), COALESCE(sku, ''), COALESCE(size, ''), COALESCE(color, ''),
	COALESCE(volume, ''), weight, is_active, is_featured, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.ProductNumber, &p.Name, &p.Description, &p.CategoryID, &p.SupplierID,
		&p.CostPrice, &p.SellingPrice, &p.CurrentStock, &p.MinStockLevel, &p.MaxStockLevel, &p.ReorderPoint,
		&p.ReorderQuantity, &p.Barcode, &p.SKU, &p.Size, &p.Color, &p.Volume, &p.Weight, &p.IsActive,
		&p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("name", "name is required")
	}
	if in.CostPrice.IsNegative() {
		return validationError("cost_price", "cost_price must not be negative")
	}
	if in.SellingPrice.IsNegative() {
		return validationError("selling_price", "selling_price must not be negative")
	}
	if in.CurrentStock < 0 {
		return validationError("current_stock", "current_stock must not be negative")
	}
	return nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := s.seq.NextCodeTx(ctx, tx, EntityProduct)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(tx.QueryRow(ctx, `
		INSERT INTO products (product_number, name, description, category_id, supplier_id, cost_price,
		                      selling_price, current_stock, min_stock_level, max_stock_level, reorder_point,
		                      reorder_quantity, barcode, sku, size, color, volume, weight, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+productColumns,
		number, strings.TrimSpace(in.Name), nullIfEmpty(in.Description), in.CategoryID, in.SupplierID,
		in.CostPrice, in.SellingPrice, in.CurrentStock, in.MinStockLevel, in.MaxStockLevel, in.ReorderPoint,
		in.ReorderQuantity, nullIfEmpty(in.Barcode), nullIfEmpty(in.SKU), nullIfEmpty(in.Size),
		nullIfEmpty(in.Color), nullIfEmpty(in.Volume), in.Weight, in.IsFeatured))
	if err != nil {
		return nil, storageError(err, "insert product")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("product", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *productService) GetByNumber(ctx context.Context, productNumber string) (*Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_number = $1`, productNumber))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("product", productNumber)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY product_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	products, err := collectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return products, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, upd ProductUpdate) (*Product, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, validationError("name", "name must not be empty")
	}
	if upd.SellingPrice != nil && upd.SellingPrice.IsNegative() {
		return nil, validationError("selling_price", "selling_price must not be negative")
	}
	if upd.CostPrice != nil && upd.CostPrice.IsNegative() {
		return nil, validationError("cost_price", "cost_price must not be negative")
	}
	if upd.CurrentStock != nil && *upd.CurrentStock < 0 {
		return nil, validationError("current_stock", "current_stock must not be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	before, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("product", id)
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	after, err := scanProduct(tx.QueryRow(ctx, `
		UPDATE products
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    category_id = COALESCE($4, category_id),
		    supplier_id = COALESCE($5, supplier_id),
		    cost_price = COALESCE($6, cost_price),
		    selling_price = COALESCE($7, selling_price),
		    current_stock = COALESCE($8, current_stock),
		    min_stock_level = COALESCE($9, min_stock_level),
		    max_stock_level = COALESCE($10, max_stock_level),
		    reorder_point = COALESCE($11, reorder_point),
		    barcode = CASE WHEN $12::text IS NULL THEN barcode ELSE NULLIF($12, '') END,
		    sku = CASE WHEN $13::text IS NULL THEN sku ELSE NULLIF($13, '') END,
		    is_active = COALESCE($14, is_active),
		    is_featured = COALESCE($15, is_featured),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		id, upd.Name, upd.Description, upd.CategoryID, upd.SupplierID, upd.CostPrice, upd.SellingPrice,
		upd.CurrentStock, upd.MinStockLevel, upd.MaxStockLevel, upd.ReorderPoint, upd.Barcode, upd.SKU,
		upd.IsActive, upd.IsFeatured))
	if err != nil {
		return nil, storageError(err, "update product")
	}

	if !after.SellingPrice.Equal(before.SellingPrice) {
		reason := upd.PriceReason
		if reason == "" {
			reason = defaultPriceChangeReason
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO price_history (product_id, old_price, new_price, changed_by, reason)
			VALUES ($1, $2, $3, $4, $5)
		`, id, before.SellingPrice, after.SellingPrice, upd.ChangedBy, reason)
		if err != nil {
			return nil, storageError(err, "record price change")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return after, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return storageError(err, "deactivate product")
	}
	if tag.RowsAffected() == 0 {
		return notFound("product", id)
	}
	return nil
}

func (s *productService) PriceHistory(ctx context.Context, id uuid.UUID) ([]PriceChange, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, old_price, new_price, changed_by, reason, changed_at
		FROM price_history
		WHERE product_id = $1
		ORDER BY changed_at DESC, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	history, err := collectRows(rows, func(row pgx.Row) (*PriceChange, error) {
		pc := &PriceChange{}
		err := row.Scan(&pc.ID, &pc.ProductID, &pc.OldPrice, &pc.NewPrice, &pc.ChangedBy, &pc.Reason, &pc.ChangedAt)
		return pc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan price change: %w", err)
	}
	return history, nil
}

const inventoryQuery = `
	SELECT id, product_number, name, COALESCE(sku, ''), current_stock,
	       COALESCE(min_stock_level, 5), selling_price,
	       selling_price * current_stock,
	       current_stock <= COALESCE(min_stock_level, 5)
	FROM products
	WHERE is_active`

func scanInventoryItem(row pgx.Row) (*InventoryItem, error) {
	it := &InventoryItem{}
	err := row.Scan(&it.ProductID, &it.ProductNumber, &it.Name, &it.SKU, &it.CurrentStock,
		&it.MinStockLevel, &it.SellingPrice, &it.StockValue, &it.LowStock)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (s *productService) Inventory(ctx context.Context) ([]InventoryItem, error) {
	return s.queryInventory(ctx, inventoryQuery+` ORDER BY product_number`)
}

func (s *productService) LowStock(ctx context.Context) ([]InventoryItem, error) {
	return s.queryInventory(ctx, inventoryQuery+` AND current_stock <= COALESCE(min_stock_level, 5) ORDER BY current_stock, product_number`)
}

func (s *productService) queryInventory(ctx context.Context, query string) ([]InventoryItem, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	items, err := collectRows(rows, scanInventoryItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inventory item: %w", err)
	}
	return items, nil
}
