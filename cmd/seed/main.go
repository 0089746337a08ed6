// seed loads a default store, an admin user and a starter catalog. Every
// insert is idempotent, so running it twice leaves the data unchanged.
//
// Usage: SEED_ADMIN_PASSWORD=... go run ./cmd/seed
package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pos-backend/internal/config"
	"pos-backend/internal/core"
	"pos-backend/internal/db"
)

const (
	defaultStoreName  = "Main Store"
	defaultAdminEmail = "admin@pos.local"
)

type starterProduct struct {
	sku, name, category string
	cost, price         string
	stock, minStock     int
}

var starterCatalog = []starterProduct{
	{"SKU-COF-250", "Ground Coffee 250g", "Groceries", "3.20", "5.99", 40, 10},
	{"SKU-TEA-100", "Green Tea 100 bags", "Groceries", "2.10", "4.49", 25, 5},
	{"SKU-MUG-001", "Ceramic Mug", "Homeware", "1.80", "6.50", 12, 3},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("SEED_ADMIN_PASSWORD is required")
	}
	hash, err := core.HashPassword(password)
	if err != nil {
		log.Fatalf("admin password: %v", err)
	}
	adminEmail := defaultAdminEmail
	if v := os.Getenv("SEED_ADMIN_EMAIL"); v != "" {
		adminEmail = v
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding store...")
	_, err = tx.Exec(ctx, `
		INSERT INTO stores (name, currency, timezone)
		SELECT $1, 'USD', 'UTC'
		WHERE NOT EXISTS (SELECT 1 FROM stores WHERE name = $1)
	`, defaultStoreName)
	if err != nil {
		log.Fatalf("Failed to seed store: %v", err)
	}

	log.Println("Seeding admin user...")
	_, err = tx.Exec(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, role)
		VALUES ('admin', $1, $2, 'Administrator', $3)
		ON CONFLICT DO NOTHING
	`, adminEmail, hash, string(core.RoleAdmin))
	if err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	log.Println("Seeding categories and supplier...")
	_, err = tx.Exec(ctx, `
		INSERT INTO categories (name, description)
		VALUES ('Groceries', 'Food and drink'), ('Homeware', 'Kitchen and home')
		ON CONFLICT (name) DO NOTHING
	`)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO suppliers (name, contact_person, email, payment_terms)
		SELECT 'Acme Wholesale', 'Jordan Lee', 'orders@acme.example', 'Net 30'
		WHERE NOT EXISTS (SELECT 1 FROM suppliers WHERE name = 'Acme Wholesale')
	`)
	if err != nil {
		log.Fatalf("Failed to seed supplier: %v", err)
	}

	log.Println("Seeding products...")
	seq := core.NewSequenceGenerator()
	for _, p := range starterCatalog {
		if err := seedProduct(ctx, tx, seq, p); err != nil {
			log.Fatalf("Failed to seed product %s: %v", p.sku, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Printf("Seed data loaded. Admin login: %s", adminEmail)
}

// seedProduct inserts p unless its SKU exists. The product number is drawn
// from the shared counter, so only new rows consume a number.
func seedProduct(ctx context.Context, tx pgx.Tx, seq core.SequenceGenerator, p starterProduct) error {
	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)", p.sku).Scan(&exists); err != nil {
		return err
	}
	if exists {
		log.Printf("  [SKIP] %s", p.sku)
		return nil
	}

	number, err := seq.NextCodeTx(ctx, tx, core.EntityProduct)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO products (product_number, name, sku, category_id, supplier_id,
		                      cost_price, selling_price, current_stock, min_stock_level)
		VALUES ($1, $2, $3,
		        (SELECT id FROM categories WHERE name = $4),
		        (SELECT id FROM suppliers WHERE name = 'Acme Wholesale' ORDER BY created_at LIMIT 1),
		        $5, $6, $7, $8)
	`, number, p.name, p.sku, p.category,
		decimal.RequireFromString(p.cost), decimal.RequireFromString(p.price), p.stock, p.minStock)
	if err != nil {
		return err
	}
	log.Printf("  [ADD] %s %s", number, p.name)
	return nil
}
