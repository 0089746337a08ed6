package app

import (
	"context"
	"io"

	"github.com/google/uuid"

	"pos-backend/internal/core"
)

// ApplicationService is the single interface the CLI and web adapters call.
// It decouples presentation from business logic. Implementations contain no
// display logic of any kind.
type ApplicationService interface {
	// Login verifies credentials and returns the session to encode in a token.
	Login(ctx context.Context, email, password string) (*UserSession, error)

	// Register creates a user account. Only an admin actor may choose the
	// role; everyone else gets a cashier account.
	Register(ctx context.Context, req RegisterRequest, actor *UserSession) (*core.User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	CreateUser(ctx context.Context, in core.NewUserInput) (*core.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, upd core.UserUpdate) (*core.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) error

	// CreateSale records a sale atomically and invalidates the dashboard cache.
	CreateSale(ctx context.Context, in core.CreateSaleInput) (*core.SaleConfirmation, error)

	// DeleteSale reverses a sale atomically and invalidates the dashboard cache.
	DeleteSale(ctx context.Context, id uuid.UUID) error

	// UpdateSale changes payment status and notes of an active sale. Items and
	// amounts are fixed once committed.
	UpdateSale(ctx context.Context, id uuid.UUID, upd core.SaleUpdate) (*core.SaleDetail, error)

	GetSale(ctx context.Context, id uuid.UUID) (*core.SaleDetail, error)
	ListSales(ctx context.Context, f core.SaleFilter) ([]core.Sale, error)
	GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]core.SaleItem, error)
	ListSaleItems(ctx context.Context) ([]core.SaleItem, error)
	GetSaleItem(ctx context.Context, id uuid.UUID) (*core.SaleItem, error)

	// Dashboard aggregates are served from the cache when one is configured.
	DashboardStats(ctx context.Context) (*core.DashboardStats, error)
	RecentSales(ctx context.Context) ([]core.Sale, error)
	DailySales(ctx context.Context) ([]core.DailySales, error)

	ListCustomers(ctx context.Context) ([]core.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*core.Customer, error)
	CreateCustomer(ctx context.Context, ref core.CustomerRef) (*core.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, upd core.CustomerUpdate) (*core.Customer, error)
	DeactivateCustomer(ctx context.Context, id uuid.UUID) error
	CustomerInsights(ctx context.Context) (*core.CustomerInsights, error)

	ListProducts(ctx context.Context) ([]core.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*core.Product, error)
	GetProductByNumber(ctx context.Context, number string) (*core.Product, error)
	CreateProduct(ctx context.Context, in core.ProductInput) (*core.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, upd core.ProductUpdate) (*core.Product, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	PriceHistory(ctx context.Context, productID uuid.UUID) ([]core.PriceChange, error)
	Inventory(ctx context.Context) ([]core.InventoryItem, error)
	LowStock(ctx context.Context) ([]core.InventoryItem, error)

	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (*core.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, c core.Category) (*core.Category, error)
	DeactivateCategory(ctx context.Context, id uuid.UUID) error

	ListSuppliers(ctx context.Context) ([]core.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*core.Supplier, error)
	CreateSupplier(ctx context.Context, s core.Supplier) (*core.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, s core.Supplier) (*core.Supplier, error)
	DeactivateSupplier(ctx context.Context, id uuid.UUID) error

	ListStores(ctx context.Context) ([]core.Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*core.Store, error)
	CreateStore(ctx context.Context, s core.Store) (*core.Store, error)
	UpdateStore(ctx context.Context, id uuid.UUID, s core.Store) (*core.Store, error)
	DeactivateStore(ctx context.Context, id uuid.UUID) error

	// BuildReport assembles the business report under the report timeout.
	BuildReport(ctx context.Context, req ReportRequest) (*core.Report, error)

	// ExportReport builds the report and renders it to w in the requested format.
	ExportReport(ctx context.Context, req ReportRequest, format ReportFormat, w io.Writer) error
}
