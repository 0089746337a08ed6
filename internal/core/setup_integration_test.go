package core_test

import (
	"context"
	"os"
	"testing"

	"pos-backend/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type testEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	seq       core.SequenceGenerator
	customers core.CustomerService
	products  core.ProductService
	sales     core.SaleService
	suppliers core.SupplierService
	users     core.UserService
	reports   core.ReportingService
	storeID   uuid.UUID
	userID    uuid.UUID
}

func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Integration tests wipe every POS table, so they only run against a dedicated database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE sale_items, sales, price_history, products, customers,
		               categories, suppliers, stores, users, entity_sequences CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}

	env := &testEnv{ctx: ctx, pool: pool}
	err = pool.QueryRow(ctx, `INSERT INTO stores (name) VALUES ('Main Street') RETURNING id`).Scan(&env.storeID)
	if err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	err = pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, role)
		VALUES ('till1', 'till1@shop.test', 'x', 'Till One', 'cashier')
		RETURNING id
	`).Scan(&env.userID)
	if err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	env.seq = core.NewSequenceGenerator()
	env.customers = core.NewCustomerService(pool, env.seq)
	env.products = core.NewProductService(pool, env.seq)
	env.sales = core.NewSaleService(pool, env.seq, env.customers, core.NewStockService())
	env.suppliers = core.NewSupplierService(pool)
	env.users = core.NewUserService(pool)
	env.reports = core.NewReportingService(pool, env.sales, env.products, env.customers, env.suppliers, env.users)
	return env
}

// seedProduct inserts a product directly with the given number, price and stock.
func (e *testEnv) seedProduct(t *testing.T, number, name, price string, stock int) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := e.pool.QueryRow(e.ctx, `
		INSERT INTO products (product_number, name, selling_price, cost_price, current_stock, sku)
		VALUES ($1, $2, $3, 0, $4, $5)
		RETURNING id
	`, number, name, price, stock, "SKU-"+number).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed product %s: %v", number, err)
	}
	return id
}

func (e *testEnv) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var stock int
	if err := e.pool.QueryRow(e.ctx, `SELECT current_stock FROM products WHERE id = $1`, productID).Scan(&stock); err != nil {
		t.Fatalf("Failed to read stock: %v", err)
	}
	return stock
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.pool.QueryRow(e.ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

type line struct {
	productID uuid.UUID
	qty       int
	price     string
}

// saleInput builds a balanced sale request with no tax or discount.
func (e *testEnv) saleInput(customer core.CustomerRef, lines ...line) core.CreateSaleInput {
	in := core.CreateSaleInput{
		Customer: customer,
		Sale: core.SaleHeaderInput{
			UserID:        &e.userID,
			StoreID:       &e.storeID,
			PaymentMethod: "cash",
		},
	}
	total := decimal.Zero
	for _, l := range lines {
		price := decimal.RequireFromString(l.price)
		in.Items = append(in.Items, core.SaleItemInput{ProductID: l.productID, Quantity: l.qty, UnitPrice: price})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(l.qty))))
	}
	in.Sale.Subtotal = total
	in.Sale.TotalAmount = total
	return in
}
