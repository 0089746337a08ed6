package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-backend/internal/cache"
	"pos-backend/internal/core"
	"pos-backend/internal/export"
)

// Services bundles the domain services the application layer delegates to.
type Services struct {
	Sales      core.SaleService
	Customers  core.CustomerService
	Products   core.ProductService
	Categories core.CategoryService
	Suppliers  core.SupplierService
	Stores     core.StoreService
	Users      core.UserService
	Reports    core.ReportingService
}

// NewServices wires every domain service against one pool. Customers,
// products and sales share a single sequence generator.
func NewServices(pool *pgxpool.Pool) Services {
	seq := core.NewSequenceGenerator()
	customers := core.NewCustomerService(pool, seq)
	products := core.NewProductService(pool, seq)
	sales := core.NewSaleService(pool, seq, customers, core.NewStockService())
	suppliers := core.NewSupplierService(pool)
	users := core.NewUserService(pool)
	return Services{
		Sales:      sales,
		Customers:  customers,
		Products:   products,
		Categories: core.NewCategoryService(pool),
		Suppliers:  suppliers,
		Stores:     core.NewStoreService(pool),
		Users:      users,
		Reports:    core.NewReportingService(pool, sales, products, customers, suppliers, users),
	}
}

type appService struct {
	svc           Services
	cache         *cache.Cache
	reportTimeout time.Duration
}

// NewAppService constructs an appService that satisfies ApplicationService.
// dashboard may be nil, in which case aggregates are always queried directly.
func NewAppService(svc Services, dashboard *cache.Cache, reportTimeout time.Duration) ApplicationService {
	return &appService{svc: svc, cache: dashboard, reportTimeout: reportTimeout}
}

// ── Auth and users ───────────────────────────────────────────────────────────

func (s *appService) Login(ctx context.Context, email, password string) (*UserSession, error) {
	u, err := s.svc.Users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return sessionFor(u), nil
}

func (s *appService) Register(ctx context.Context, req RegisterRequest, actor *UserSession) (*core.User, error) {
	role := core.RoleCashier
	if req.Role != "" && actor.HasRole(core.RoleAdmin) {
		role = req.Role
	}
	return s.svc.Users.Create(ctx, core.NewUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     role,
	})
}

func (s *appService) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	return s.svc.Users.GetByID(ctx, id)
}

func (s *appService) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.svc.Users.List(ctx)
}

func (s *appService) CreateUser(ctx context.Context, in core.NewUserInput) (*core.User, error) {
	return s.svc.Users.Create(ctx, in)
}

func (s *appService) UpdateUser(ctx context.Context, id uuid.UUID, upd core.UserUpdate) (*core.User, error) {
	return s.svc.Users.Update(ctx, id, upd)
}

func (s *appService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	return s.svc.Users.Deactivate(ctx, id)
}

// ── Sales ────────────────────────────────────────────────────────────────────

func (s *appService) CreateSale(ctx context.Context, in core.CreateSaleInput) (*core.SaleConfirmation, error) {
	conf, err := s.svc.Sales.CreateSale(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return conf, nil
}

func (s *appService) DeleteSale(ctx context.Context, id uuid.UUID) error {
	if err := s.svc.Sales.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

// UpdateSale invalidates the dashboard since recent sales carry payment status.
func (s *appService) UpdateSale(ctx context.Context, id uuid.UUID, upd core.SaleUpdate) (*core.SaleDetail, error) {
	sale, err := s.svc.Sales.UpdateSale(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return sale, nil
}

// invalidateDashboard runs after commit, so a failure only leaves stale
// aggregates until the TTL expires.
func (s *appService) invalidateDashboard(ctx context.Context) {
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		log.Printf("warning: %v", err)
	}
}

func (s *appService) GetSale(ctx context.Context, id uuid.UUID) (*core.SaleDetail, error) {
	return s.svc.Sales.GetSale(ctx, id)
}

func (s *appService) ListSales(ctx context.Context, f core.SaleFilter) ([]core.Sale, error) {
	return s.svc.Sales.ListSales(ctx, f)
}

func (s *appService) GetSaleItems(ctx context.Context, saleID uuid.UUID) ([]core.SaleItem, error) {
	if _, err := s.svc.Sales.GetSale(ctx, saleID); err != nil {
		return nil, err
	}
	return s.svc.Sales.GetSaleItems(ctx, saleID)
}

func (s *appService) ListSaleItems(ctx context.Context) ([]core.SaleItem, error) {
	return s.svc.Sales.ListSaleItems(ctx)
}

func (s *appService) GetSaleItem(ctx context.Context, id uuid.UUID) (*core.SaleItem, error) {
	return s.svc.Sales.GetSaleItem(ctx, id)
}

// ── Dashboard ────────────────────────────────────────────────────────────────

func (s *appService) DashboardStats(ctx context.Context) (*core.DashboardStats, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyDashboardStats, s.svc.Reports.DashboardStats)
}

func (s *appService) RecentSales(ctx context.Context) ([]core.Sale, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyDashboardRecent, s.svc.Reports.RecentSales)
}

func (s *appService) DailySales(ctx context.Context) ([]core.DailySales, error) {
	return cache.Fetch(ctx, s.cache, cache.KeyDashboardDaily, s.svc.Reports.DailySales)
}

// ── Customers ────────────────────────────────────────────────────────────────

func (s *appService) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	return s.svc.Customers.List(ctx)
}

func (s *appService) GetCustomer(ctx context.Context, id uuid.UUID) (*core.Customer, error) {
	return s.svc.Customers.Get(ctx, id)
}

func (s *appService) CreateCustomer(ctx context.Context, ref core.CustomerRef) (*core.Customer, error) {
	c, err := s.svc.Customers.Create(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return c, nil
}

// UpdateCustomer invalidates the dashboard since is_active feeds total_customers.
func (s *appService) UpdateCustomer(ctx context.Context, id uuid.UUID, upd core.CustomerUpdate) (*core.Customer, error) {
	c, err := s.svc.Customers.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return c, nil
}

func (s *appService) DeactivateCustomer(ctx context.Context, id uuid.UUID) error {
	if err := s.svc.Customers.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *appService) CustomerInsights(ctx context.Context) (*core.CustomerInsights, error) {
	return s.svc.Customers.Insights(ctx)
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *appService) ListProducts(ctx context.Context) ([]core.Product, error) {
	return s.svc.Products.List(ctx)
}

func (s *appService) GetProduct(ctx context.Context, id uuid.UUID) (*core.Product, error) {
	return s.svc.Products.Get(ctx, id)
}

func (s *appService) GetProductByNumber(ctx context.Context, number string) (*core.Product, error) {
	return s.svc.Products.GetByNumber(ctx, number)
}

// Product writes change inventory value and low-stock counts, so they also
// drop the dashboard aggregates.
func (s *appService) CreateProduct(ctx context.Context, in core.ProductInput) (*core.Product, error) {
	p, err := s.svc.Products.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return p, nil
}

func (s *appService) UpdateProduct(ctx context.Context, id uuid.UUID, upd core.ProductUpdate) (*core.Product, error) {
	p, err := s.svc.Products.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.invalidateDashboard(ctx)
	return p, nil
}

func (s *appService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.svc.Products.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *appService) PriceHistory(ctx context.Context, productID uuid.UUID) ([]core.PriceChange, error) {
	return s.svc.Products.PriceHistory(ctx, productID)
}

func (s *appService) Inventory(ctx context.Context) ([]core.InventoryItem, error) {
	return s.svc.Products.Inventory(ctx)
}

func (s *appService) LowStock(ctx context.Context) ([]core.InventoryItem, error) {
	return s.svc.Products.LowStock(ctx)
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.svc.Categories.List(ctx)
}

func (s *appService) GetCategory(ctx context.Context, id uuid.UUID) (*core.Category, error) {
	return s.svc.Categories.Get(ctx, id)
}

func (s *appService) CreateCategory(ctx context.Context, c core.Category) (*core.Category, error) {
	return s.svc.Categories.Create(ctx, c)
}

func (s *appService) UpdateCategory(ctx context.Context, id uuid.UUID, c core.Category) (*core.Category, error) {
	return s.svc.Categories.Update(ctx, id, c)
}

func (s *appService) DeactivateCategory(ctx context.Context, id uuid.UUID) error {
	return s.svc.Categories.Deactivate(ctx, id)
}

func (s *appService) ListSuppliers(ctx context.Context) ([]core.Supplier, error) {
	return s.svc.Suppliers.List(ctx)
}

func (s *appService) GetSupplier(ctx context.Context, id uuid.UUID) (*core.Supplier, error) {
	return s.svc.Suppliers.Get(ctx, id)
}

func (s *appService) CreateSupplier(ctx context.Context, sup core.Supplier) (*core.Supplier, error) {
	return s.svc.Suppliers.Create(ctx, sup)
}

func (s *appService) UpdateSupplier(ctx context.Context, id uuid.UUID, sup core.Supplier) (*core.Supplier, error) {
	return s.svc.Suppliers.Update(ctx, id, sup)
}

func (s *appService) DeactivateSupplier(ctx context.Context, id uuid.UUID) error {
	return s.svc.Suppliers.Deactivate(ctx, id)
}

func (s *appService) ListStores(ctx context.Context) ([]core.Store, error) {
	return s.svc.Stores.List(ctx)
}

func (s *appService) GetStore(ctx context.Context, id uuid.UUID) (*core.Store, error) {
	return s.svc.Stores.Get(ctx, id)
}

func (s *appService) CreateStore(ctx context.Context, st core.Store) (*core.Store, error) {
	return s.svc.Stores.Create(ctx, st)
}

func (s *appService) UpdateStore(ctx context.Context, id uuid.UUID, st core.Store) (*core.Store, error) {
	return s.svc.Stores.Update(ctx, id, st)
}

func (s *appService) DeactivateStore(ctx context.Context, id uuid.UUID) error {
	return s.svc.Stores.Deactivate(ctx, id)
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (s *appService) BuildReport(ctx context.Context, req ReportRequest) (*core.Report, error) {
	ctx, cancel := s.reportContext(ctx)
	defer cancel()
	return s.svc.Reports.BuildReport(ctx, req.From, req.To)
}

// ExportReport builds and renders under one deadline. The file is rendered
// into memory and reaches w only if the deadline has not passed.
func (s *appService) ExportReport(ctx context.Context, req ReportRequest, format ReportFormat, w io.Writer) error {
	if format != FormatXLSX && format != FormatPDF {
		return fmt.Errorf("unsupported report format %q", format)
	}
	ctx, cancel := s.reportContext(ctx)
	defer cancel()

	report, err := s.svc.Reports.BuildReport(ctx, req.From, req.To)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if format == FormatXLSX {
		err = export.WriteXLSX(&buf, report)
	} else {
		err = export.WritePDF(&buf, report)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("report export exceeded its deadline: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

func (s *appService) reportContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.reportTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.reportTimeout)
}
