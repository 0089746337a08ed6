package core_test

import (
	"testing"
	"time"

	"pos-backend/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportingService_Dashboard(t *testing.T) {
	env := setupTestDB(t)
	pen := env.seedProduct(t, "PRD-001", "Pen", "1.50", 20)
	pad := env.seedProduct(t, "PRD-002", "Pad", "4.00", 6)

	_, err := env.sales.CreateSale(env.ctx, env.saleInput(core.CustomerRef{Email: "a@shop.test"},
		line{pen, 4, "1.50"}, line{pad, 1, "4.00"}))
	require.NoError(t, err)
	deleted, err := env.sales.CreateSale(env.ctx, env.saleInput(core.CustomerRef{Email: "b@shop.test"},
		line{pad, 2, "4.00"}))
	require.NoError(t, err)
	require.NoError(t, env.sales.DeleteSale(env.ctx, deleted.SaleID))

	stats, err := env.reports.DashboardStats(env.ctx)
	require.NoError(t, err)
	assert.True(t, stats.TodaySales.Equal(decimal.NewFromInt(10)), "today_sales = %s", stats.TodaySales)
	assert.Equal(t, 2, stats.TotalCustomers)
	// 16 pens at 1.50 plus 5 pads at 4.00
	assert.True(t, stats.InventoryValue.Equal(decimal.NewFromInt(44)), "inventory_value = %s", stats.InventoryValue)
	assert.Equal(t, 1, stats.LowStockCount)
	require.NotNil(t, stats.BestSeller)
	assert.Equal(t, "Pen", stats.BestSeller.Name)
	assert.Equal(t, 4, stats.BestSeller.UnitsSold)

	recent, err := env.reports.RecentSales(env.ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)

	daily, err := env.reports.DailySales(env.ctx)
	require.NoError(t, err)
	require.Len(t, daily, 7)
	today := daily[6]
	assert.Equal(t, 1, today.Count)
	assert.True(t, today.Total.Equal(decimal.NewFromInt(10)))
	for _, d := range daily[:6] {
		assert.Zero(t, d.Count)
		assert.True(t, d.Total.IsZero())
		assert.Len(t, d.Day, 3)
	}
}

func TestReportingService_BuildReport(t *testing.T) {
	env := setupTestDB(t)
	pen := env.seedProduct(t, "PRD-001", "Pen", "1.50", 3)
	_, err := env.suppliers.Create(env.ctx, core.Supplier{Name: "Paper Co"})
	require.NoError(t, err)

	in := env.saleInput(core.CustomerRef{Email: "a@shop.test"}, line{pen, 2, "1.50"})
	in.Sale.TaxAmount = decimal.RequireFromString("0.30")
	in.Sale.TotalAmount = decimal.RequireFromString("3.30")
	_, err = env.sales.CreateSale(env.ctx, in)
	require.NoError(t, err)

	report, err := env.reports.BuildReport(env.ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sales.Count)
	assert.True(t, report.Sales.Revenue.Equal(decimal.RequireFromString("3.30")))
	assert.True(t, report.Sales.Tax.Equal(decimal.RequireFromString("0.30")))
	assert.Equal(t, 1, report.Products.Total)
	assert.Len(t, report.Products.LowStock, 1)
	assert.Equal(t, 1, report.Customers.Total)
	assert.Equal(t, 1, report.Suppliers.Total)
	assert.Equal(t, 1, report.Users.Total)

	future := time.Now().Add(24 * time.Hour)
	report, err = env.reports.BuildReport(env.ctx, &future, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Sales.Count)

	past := time.Now().Add(-48 * time.Hour)
	_, err = env.reports.BuildReport(env.ctx, &future, &past)
	assert.Error(t, err)
}
