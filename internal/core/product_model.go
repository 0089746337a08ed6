package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultMinStockLevel applies when a product has no min_stock_level of its own.
const defaultMinStockLevel = 5

// Product is a sellable catalog item. CurrentStock never goes negative.
type Product struct {
	ID              uuid.UUID        `json:"id"`
	ProductNumber   string           `json:"product_number"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	CategoryID      *uuid.UUID       `json:"category_id"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	CostPrice       decimal.Decimal  `json:"cost_price"`
	SellingPrice    decimal.Decimal  `json:"selling_price"`
	CurrentStock    int              `json:"current_stock"`
	MinStockLevel   *int             `json:"min_stock_level"`
	MaxStockLevel   *int             `json:"max_stock_level"`
	ReorderPoint    *int             `json:"reorder_point"`
	ReorderQuantity *int             `json:"reorder_quantity"`
	Barcode         string           `json:"barcode"`
	SKU             string           `json:"sku"`
	Size            string           `json:"size"`
	Color           string           `json:"color"`
	Volume          string           `json:"volume"`
	Weight          *decimal.Decimal `json:"weight"`
	IsActive        bool             `json:"is_active"`
	IsFeatured      bool             `json:"is_featured"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// LowStock reports whether stock has fallen to the minimum level.
func (p Product) LowStock() bool {
	threshold := defaultMinStockLevel
	if p.MinStockLevel != nil {
		threshold = *p.MinStockLevel
	}
	return p.CurrentStock <= threshold
}

// ProductInput carries the fields for creating a product.
type ProductInput struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	CategoryID      *uuid.UUID       `json:"category_id"`
	SupplierID      *uuid.UUID       `json:"supplier_id"`
	CostPrice       decimal.Decimal  `json:"cost_price"`
	SellingPrice    decimal.Decimal  `json:"selling_price"`
	CurrentStock    int              `json:"current_stock"`
	MinStockLevel   *int             `json:"min_stock_level"`
	MaxStockLevel   *int             `json:"max_stock_level"`
	ReorderPoint    *int             `json:"reorder_point"`
	ReorderQuantity *int             `json:"reorder_quantity"`
	Barcode         string           `json:"barcode"`
	SKU             string           `json:"sku"`
	Size            string           `json:"size"`
	Color           string           `json:"color"`
	Volume          string           `json:"volume"`
	Weight          *decimal.Decimal `json:"weight"`
	IsFeatured      bool             `json:"is_featured"`
}

// ProductUpdate is a partial update; nil fields are left unchanged.
// A change to SellingPrice is recorded in the price history.
type ProductUpdate struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	CurrentStock  *int             `json:"current_stock"`
	MinStockLevel *int             `json:"min_stock_level"`
	MaxStockLevel *int             `json:"max_stock_level"`
	ReorderPoint  *int             `json:"reorder_point"`
	Barcode       *string          `json:"barcode"`
	SKU           *string          `json:"sku"`
	IsActive      *bool            `json:"is_active"`
	IsFeatured    *bool            `json:"is_featured"`
	ChangedBy     *uuid.UUID       `json:"-"`
	PriceReason   string           `json:"price_change_reason"`
}

// PriceChange is one append-only price history row.
type PriceChange struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
	ChangedBy *uuid.UUID      `json:"changed_by"`
	Reason    string          `json:"reason"`
	ChangedAt time.Time       `json:"changed_at"`
}

// InventoryItem is a product row in the stock view.
type InventoryItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductNumber string          `json:"product_number"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CurrentStock  int             `json:"current_stock"`
	MinStockLevel int             `json:"min_stock_level"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockValue    decimal.Decimal `json:"stock_value"`
	LowStock      bool            `json:"low_stock"`
}
