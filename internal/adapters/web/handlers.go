package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pos-backend/internal/app"
	"pos-backend/internal/core"
)

// Options configures the HTTP adapter.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
	// SecureCookies marks the auth cookie Secure. Disable only for plain-HTTP local development.
	SecureCookies bool
}

// Handler holds the ApplicationService and auth settings shared by all routes.
type Handler struct {
	svc           app.ApplicationService
	jwtSecret     string
	tokenTTL      time.Duration
	secureCookies bool
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:           svc,
		jwtSecret:     opts.JWTSecret,
		tokenTTL:      opts.TokenTTL,
		secureCookies: opts.SecureCookies,
	}
	if h.tokenTTL <= 0 {
		h.tokenTTL = 24 * time.Hour
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Public ────────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/logout", h.logout)

	// ── Authenticated ─────────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)

		r.Route("/api/sales", func(r chi.Router) {
			r.Post("/", h.createSale)
			r.Get("/", h.listSales)
			r.Get("/stats", h.salesStats)
			r.Get("/recent", h.recentSales)
			r.Get("/daily", h.dailySales)
			r.Get("/{id}", h.getSale)
			r.Put("/{id}", h.updateSale)
			r.Get("/{id}/items", h.getSaleItems)
			r.Delete("/{id}", h.deleteSale)
		})

		r.Get("/api/sale_items", h.listSaleItems)
		r.Get("/api/sale_items/{id}", h.getSaleItem)

		r.Route("/api/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/insights", h.customerInsights)
			r.Get("/{id}", h.getCustomer)
			r.Put("/{id}", h.updateCustomer)
			r.Delete("/{id}", h.deactivateCustomer)
		})

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/inventory", h.inventory)
			r.Get("/low-stock", h.lowStock)
			r.Get("/number/{number}", h.getProductByNumber)
			r.Get("/{id}", h.getProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deactivateProduct)
			r.Get("/{id}/price-history", h.priceHistory)
		})

		r.Route("/api/categories", resource[core.Category]{
			list:       h.svc.ListCategories,
			get:        h.svc.GetCategory,
			create:     h.svc.CreateCategory,
			update:     h.svc.UpdateCategory,
			deactivate: h.svc.DeactivateCategory,
		}.mount)

		r.Route("/api/suppliers", resource[core.Supplier]{
			list:       h.svc.ListSuppliers,
			get:        h.svc.GetSupplier,
			create:     h.svc.CreateSupplier,
			update:     h.svc.UpdateSupplier,
			deactivate: h.svc.DeactivateSupplier,
		}.mount)

		r.Route("/api/stores", resource[core.Store]{
			list:       h.svc.ListStores,
			get:        h.svc.GetStore,
			create:     h.svc.CreateStore,
			update:     h.svc.UpdateStore,
			deactivate: h.svc.DeactivateStore,
		}.mount)

		r.Route("/api/users", func(r chi.Router) {
			r.Use(RequireRole(core.RoleAdmin))
			r.Get("/", h.listUsers)
			r.Post("/", h.createUser)
			r.Get("/{id}", h.getUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deactivateUser)
		})

		r.Route("/api/reports", func(r chi.Router) {
			r.Use(RequireRole(core.RoleAdmin, core.RoleManager))
			r.Get("/", h.report)
			r.Get("/excel", h.reportExcel)
			r.Get("/pdf", h.reportPDF)
		})
	})

	return r
}

// health reports liveness only; it never touches the database.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses the {id} URL parameter, writing a 400 when it is not a UUID.
func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid id: "+chi.URLParam(r, "id"), "BAD_REQUEST", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
