package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pos-backend/internal/core"
)

func sampleReport() *core.Report {
	d := decimal.RequireFromString
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &core.Report{
		GeneratedAt: time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
		From:        &from,
		Sales: core.SalesSummary{
			Count:    1,
			Revenue:  d("21.50"),
			Tax:      d("1.50"),
			Discount: d("0"),
			Details: []core.Sale{{
				SaleNumber: "SL-000001", CustomerName: "Ana", PaymentMethod: "cash",
				SaleDate: from, TaxAmount: d("1.50"), TotalAmount: d("21.50"),
			}},
		},
		Products: core.ProductSection{
			Total: 1,
			Details: []core.InventoryItem{{
				ProductNumber: "PRD-001", Name: "Pen", CurrentStock: 3, MinStockLevel: 5,
				SellingPrice: d("2.00"), StockValue: d("6.00"), LowStock: true,
			}},
		},
		Customers: core.CustomerSection{Total: 1, Details: []core.Customer{{CustomerCode: "CUST-001", FullName: "Ana"}}},
		Users:     core.UserSection{Total: 1, Details: []core.User{{Username: "admin", Role: core.RoleAdmin, IsActive: true}}},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSales, SheetInventory, SheetCustomers, SheetSuppliers, SheetUsers}, f.GetSheetList())

	rows, err := f.GetRows(SheetSales)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sale Number", rows[0][0])
	assert.Equal(t, "SL-000001", rows[1][0])
	assert.Equal(t, "TOTAL", rows[2][0])
	assert.Equal(t, "21.50", rows[2][6])

	inv, err := f.GetRows(SheetInventory)
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Equal(t, "LOW", inv[1][7])

	suppliers, err := f.GetRows(SheetSuppliers)
	require.NoError(t, err)
	assert.Len(t, suppliers, 1, "header only")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleReport()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestPeriod(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, "2026-01-01 to now", period(r))
	r.From = nil
	assert.Equal(t, "beginning to now", period(r))
}

func TestFit(t *testing.T) {
	assert.Equal(t, "short", fit("short", 40))
	long := "a very long customer name that overflows"
	got := fit(long, 16)
	assert.Len(t, got, 10)
	assert.Equal(t, "...", got[len(got)-3:])
}
