package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	recentSalesLimit = 10
	dailySalesDays   = 7
	bestSellerWindow = 30 * 24 * time.Hour
)

// BestSeller is the product with the most units sold in the trailing window.
type BestSeller struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	UnitsSold int       `json:"units_sold"`
}

// DashboardStats is the headline figure set for the dashboard.
type DashboardStats struct {
	TodaySales     decimal.Decimal `json:"today_sales"`
	TotalCustomers int             `json:"total_customers"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	LowStockCount  int             `json:"low_stock_count"`
	BestSeller     *BestSeller     `json:"best_seller"`
}

// DailySales is one day of the zero-filled weekly chart.
type DailySales struct {
	Date  string          `json:"date"`
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SalesSummary aggregates active sales in a report window.
type SalesSummary struct {
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Details  []Sale          `json:"details"`
}

type ProductSection struct {
	Total    int             `json:"total"`
	LowStock []InventoryItem `json:"low_stock"`
	Details  []InventoryItem `json:"details"`
}

type CustomerSection struct {
	Total   int        `json:"total"`
	Details []Customer `json:"details"`
}

type SupplierSection struct {
	Total   int        `json:"total"`
	Details []Supplier `json:"details"`
}

type UserSection struct {
	Total   int    `json:"total"`
	Details []User `json:"details"`
}

// Report is the full business report. From and To bound the sales section only.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	From        *time.Time      `json:"start_date"`
	To          *time.Time      `json:"end_date"`
	Sales       SalesSummary    `json:"sales_summary"`
	Products    ProductSection  `json:"products"`
	Customers   CustomerSection `json:"customers"`
	Suppliers   SupplierSection `json:"suppliers"`
	Users       UserSection     `json:"users"`
}

// ReportingService provides read-only dashboard and report queries.
// None of its methods take locks used by the sale path.
type ReportingService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	RecentSales(ctx context.Context) ([]Sale, error)
	// DailySales returns the last seven days including today, oldest first.
	DailySales(ctx context.Context) ([]DailySales, error)
	BuildReport(ctx context.Context, from, to *time.Time) (*Report, error)
}

type reportingService struct {
	pool      *pgxpool.Pool
	sales     SaleService
	products  ProductService
	customers CustomerService
	suppliers SupplierService
	users     UserService
}

func NewReportingService(pool *pgxpool.Pool, sales SaleService, products ProductService,
	customers CustomerService, suppliers SupplierService, users UserService) ReportingService {
	return &reportingService{
		pool:      pool,
		sales:     sales,
		products:  products,
		customers: customers,
		suppliers: suppliers,
		users:     users,
	}
}

func (s *reportingService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	st := &DashboardStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM sales
			  WHERE status = 'ACTIVE' AND created_at >= CURRENT_DATE),
			(SELECT COUNT(*) FROM customers WHERE is_active),
			(SELECT COALESCE(SUM(current_stock * selling_price), 0) FROM products WHERE is_active),
			(SELECT COUNT(*) FROM products
			  WHERE is_active AND current_stock <= COALESCE(min_stock_level, 5))
	`).Scan(&st.TodaySales, &st.TotalCustomers, &st.InventoryValue, &st.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard stats: %w", err)
	}

	best := &BestSeller{}
	err = s.pool.QueryRow(ctx, `
		SELECT si.product_id, p.name, SUM(si.quantity)::int
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE si.status = 'ACTIVE' AND sa.created_at >= $1
		GROUP BY si.product_id, p.name
		ORDER BY SUM(si.quantity) DESC, p.name
		LIMIT 1
	`, time.Now().Add(-bestSellerWindow)).Scan(&best.ProductID, &best.Name, &best.UnitsSold)
	switch {
	case err == nil:
		st.BestSeller = best
	case isNoRows(err):
	default:
		return nil, fmt.Errorf("failed to query best seller: %w", err)
	}
	return st, nil
}

func (s *reportingService) RecentSales(ctx context.Context) ([]Sale, error) {
	return s.sales.ListSales(ctx, SaleFilter{Status: SaleStatusActive, Limit: recentSalesLimit})
}

func (s *reportingService) DailySales(ctx context.Context) ([]DailySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d::date, COALESCE(SUM(sa.total_amount), 0), COUNT(sa.id)
		FROM generate_series(CURRENT_DATE - ($1::int - 1), CURRENT_DATE, INTERVAL '1 day') AS d
		LEFT JOIN sales sa ON sa.created_at::date = d::date AND sa.status = 'ACTIVE'
		GROUP BY d
		ORDER BY d
	`, dailySalesDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sales: %w", err)
	}
	defer rows.Close()

	out := make([]DailySales, 0, dailySalesDays)
	for rows.Next() {
		var day time.Time
		var ds DailySales
		if err := rows.Scan(&day, &ds.Total, &ds.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		ds.Date = day.Format("2006-01-02")
		ds.Day = day.Weekday().String()[:3]
		out = append(out, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily sales: %w", err)
	}
	return out, nil
}

func (s *reportingService) BuildReport(ctx context.Context, from, to *time.Time) (*Report, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, validationError("end_date", "end_date must not be before start_date")
	}
	r := &Report{GeneratedAt: time.Now().UTC(), From: from, To: to}

	sales, err := s.sales.ListSales(ctx, SaleFilter{Status: SaleStatusActive, From: from, To: to})
	if err != nil {
		return nil, err
	}
	r.Sales = summarizeSales(sales)

	if r.Products.Details, err = s.products.Inventory(ctx); err != nil {
		return nil, err
	}
	r.Products.Total = len(r.Products.Details)
	r.Products.LowStock = []InventoryItem{}
	for _, it := range r.Products.Details {
		if it.LowStock {
			r.Products.LowStock = append(r.Products.LowStock, it)
		}
	}

	if r.Customers.Details, err = s.customers.List(ctx); err != nil {
		return nil, err
	}
	r.Customers.Total = len(r.Customers.Details)

	if r.Suppliers.Details, err = s.suppliers.List(ctx); err != nil {
		return nil, err
	}
	r.Suppliers.Total = len(r.Suppliers.Details)

	if r.Users.Details, err = s.users.List(ctx); err != nil {
		return nil, err
	}
	r.Users.Total = len(r.Users.Details)

	return r, nil
}

func summarizeSales(sales []Sale) SalesSummary {
	sum := SalesSummary{Count: len(sales), Details: sales}
	for _, sale := range sales {
		sum.Revenue = sum.Revenue.Add(sale.TotalAmount)
		sum.Tax = sum.Tax.Add(sale.TaxAmount)
		sum.Discount = sum.Discount.Add(sale.DiscountAmount)
	}
	return sum
}
