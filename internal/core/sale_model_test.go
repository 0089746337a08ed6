package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func validSaleInput() CreateSaleInput {
	d := decimal.RequireFromString
	return CreateSaleInput{
		Customer: CustomerRef{Email: "a@shop.test"},
		Sale: SaleHeaderInput{
			Subtotal:       d("20.00"),
			TaxAmount:      d("1.60"),
			DiscountAmount: d("2.00"),
			TotalAmount:    d("19.60"),
			PaymentMethod:  "card",
		},
		Items: []SaleItemInput{{ProductID: uuid.New(), Quantity: 2, UnitPrice: d("10.00")}},
	}
}

func TestCreateSaleInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateSaleInput)
		field  string
	}{
		{"valid", func(*CreateSaleInput) {}, ""},
		{"rounding within a cent", func(in *CreateSaleInput) { in.Sale.TotalAmount = decimal.RequireFromString("19.61") }, ""},
		{"missing payment method", func(in *CreateSaleInput) { in.Sale.PaymentMethod = "" }, "payment_method"},
		{"no items", func(in *CreateSaleInput) { in.Items = nil }, "items"},
		{"negative tax", func(in *CreateSaleInput) { in.Sale.TaxAmount = decimal.NewFromInt(-1) }, "tax_amount"},
		{"total mismatch", func(in *CreateSaleInput) { in.Sale.TotalAmount = decimal.RequireFromString("19.62") }, "total_amount"},
		{"nil product", func(in *CreateSaleInput) { in.Items[0].ProductID = uuid.Nil }, "product_id"},
		{"zero quantity", func(in *CreateSaleInput) { in.Items[0].Quantity = 0 }, "quantity"},
		{"negative unit price", func(in *CreateSaleInput) { in.Items[0].UnitPrice = decimal.NewFromInt(-5) }, "unit_price"},
		{"negative line discount", func(in *CreateSaleInput) { in.Items[0].DiscountAmount = decimal.NewFromInt(-1) }, "discount_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSaleInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid input, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var de *DomainError
			if !errors.As(err, &de) || de.Field != tt.field {
				t.Errorf("expected field %q, got %+v", tt.field, err)
			}
		})
	}
}

func TestSaleItemInput_LineTotal(t *testing.T) {
	item := SaleItemInput{Quantity: 3, UnitPrice: decimal.RequireFromString("2.50"), DiscountAmount: decimal.RequireFromString("0.50")}
	if got := item.lineTotal(); !got.Equal(decimal.RequireFromString("7.00")) {
		t.Errorf("lineTotal = %s, want 7.00", got)
	}
}

func TestSaleStatus_CanTransition(t *testing.T) {
	if !SaleStatusActive.CanTransition(SaleStatusDeleted) {
		t.Error("ACTIVE -> DELETED must be allowed")
	}
	if SaleStatusDeleted.CanTransition(SaleStatusDeleted) {
		t.Error("DELETED -> DELETED must be rejected")
	}
	if SaleStatusDeleted.CanTransition(SaleStatusActive) {
		t.Error("DELETED -> ACTIVE must be rejected")
	}
}

func TestSaleUpdate_Validate(t *testing.T) {
	paid, blank, note := "paid", "  ", "left at counter"
	if err := (SaleUpdate{PaymentStatus: &paid}).Validate(); err != nil {
		t.Errorf("payment status update: %v", err)
	}
	if err := (SaleUpdate{Notes: &note}).Validate(); err != nil {
		t.Errorf("notes update: %v", err)
	}
	if err := (SaleUpdate{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("empty update: expected ErrValidation, got %v", err)
	}
	var de *DomainError
	err := (SaleUpdate{PaymentStatus: &blank}).Validate()
	if !errors.As(err, &de) || de.Field != "payment_status" {
		t.Errorf("blank payment status: expected payment_status error, got %v", err)
	}
}
