package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// totalTolerance is the allowed rounding gap between total_amount and
// subtotal + tax - discount.
var totalTolerance = decimal.RequireFromString("0.01")

// Sale is a committed sale header.
type Sale struct {
	ID             uuid.UUID       `json:"id"`
	SaleNumber     string          `json:"sale_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	UserID         *uuid.UUID      `json:"user_id"`
	StoreID        *uuid.UUID      `json:"store_id"`
	SaleDate       time.Time       `json:"sale_date"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	Notes          string          `json:"notes"`
	Status         SaleStatus      `json:"status"`
	DeletedAt      *time.Time      `json:"deleted_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaleItem is a line of a sale. Product name, SKU and barcode are snapshots
// taken when the sale was created.
type SaleItem struct {
	ID             uuid.UUID       `json:"id"`
	SaleID         uuid.UUID       `json:"sale_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	ProductName    string          `json:"product_name"`
	ProductSKU     string          `json:"product_sku"`
	ProductBarcode string          `json:"product_barcode"`
	Status         SaleStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SaleDetail is a sale with its items.
type SaleDetail struct {
	Sale
	Items []SaleItem `json:"items"`
}

// SaleHeaderInput is the monetary and payment part of a new sale.
type SaleHeaderInput struct {
	UserID         *uuid.UUID      `json:"user_id"`
	StoreID        *uuid.UUID      `json:"store_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  string          `json:"payment_status"`
	Notes          string          `json:"notes"`
}

// SaleItemInput is one requested line. ProductName/SKU/Barcode are fallbacks
// used only when the product row has no value of its own.
type SaleItemInput struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ProductName    string          `json:"product_name"`
	ProductSKU     string          `json:"product_sku"`
	ProductBarcode string          `json:"product_barcode"`
}

// CreateSaleInput is a complete sale request.
type CreateSaleInput struct {
	Customer CustomerRef     `json:"customer"`
	Sale     SaleHeaderInput `json:"sale"`
	Items    []SaleItemInput `json:"items"`
}

// SaleConfirmation is returned once a sale has committed.
type SaleConfirmation struct {
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
}

// SaleUpdate edits the bookkeeping fields of an active sale. Nil fields are
// left unchanged; items and amounts cannot be edited.
type SaleUpdate struct {
	PaymentStatus *string `json:"payment_status"`
	Notes         *string `json:"notes"`
}

// Validate rejects empty updates and a blank payment status.
func (u SaleUpdate) Validate() error {
	if u.PaymentStatus == nil && u.Notes == nil {
		return validationError("", "nothing to update: set payment_status or notes")
	}
	if u.PaymentStatus != nil && strings.TrimSpace(*u.PaymentStatus) == "" {
		return validationError("payment_status", "payment_status must not be empty")
	}
	return nil
}

// SaleFilter narrows ListSales. Zero values mean "no filter".
type SaleFilter struct {
	Status SaleStatus
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Validate checks the request before any transaction work begins.
func (in CreateSaleInput) Validate() error {
	h := in.Sale
	if h.PaymentMethod == "" {
		return validationError("payment_method", "payment_method is required")
	}
	if len(in.Items) == 0 {
		return validationError("items", "at least one sale item is required")
	}
	money := []struct {
		field string
		v     decimal.Decimal
	}{
		{"subtotal", h.Subtotal},
		{"tax_amount", h.TaxAmount},
		{"discount_amount", h.DiscountAmount},
		{"total_amount", h.TotalAmount},
	}
	for _, m := range money {
		if m.v.IsNegative() {
			return validationError(m.field, "%s must not be negative", m.field)
		}
	}
	expected := h.Subtotal.Add(h.TaxAmount).Sub(h.DiscountAmount)
	if expected.Sub(h.TotalAmount).Abs().GreaterThan(totalTolerance) {
		return validationError("total_amount", "total_amount %s does not equal subtotal + tax - discount (%s)",
			h.TotalAmount.StringFixed(2), expected.StringFixed(2))
	}

	for i, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return validationError("product_id", "item %d: product_id is required", i+1)
		}
		if item.Quantity < 1 {
			return validationError("quantity", "item %d: quantity must be at least 1", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return validationError("unit_price", "item %d: unit_price must not be negative", i+1)
		}
		if item.DiscountAmount.IsNegative() {
			return validationError("discount_amount", "item %d: discount_amount must not be negative", i+1)
		}
	}
	return nil
}

// lineTotal is quantity × unit price less the line discount.
func (in SaleItemInput) lineTotal() decimal.Decimal {
	return in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))).Sub(in.DiscountAmount)
}
