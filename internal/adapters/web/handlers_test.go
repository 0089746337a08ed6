package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/app"
	"pos-backend/internal/core"
)

const testSecret = "test-secret"

// fakeApp implements only what the tests exercise; any other call panics.
type fakeApp struct {
	app.ApplicationService
	lastSale   core.CreateSaleInput
	saleErr    error
	deleted    []uuid.UUID
	lastUpdate core.SaleUpdate
	updateErr  error
}

var (
	adminID   = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	cashierID = uuid.MustParse("00000000-0000-0000-0000-0000000000c1")
)

func (f *fakeApp) Login(_ context.Context, email, password string) (*app.UserSession, error) {
	if email == "admin@shop.test" && password == "password1" {
		return &app.UserSession{UserID: adminID, Username: "admin", Email: email, Role: core.RoleAdmin}, nil
	}
	return nil, &core.DomainError{Err: core.ErrUnauthorized, Message: "invalid email or password"}
}

func (f *fakeApp) GetUser(_ context.Context, id uuid.UUID) (*core.User, error) {
	return &core.User{ID: id, Username: "admin", Role: core.RoleAdmin}, nil
}

func (f *fakeApp) ListUsers(context.Context) ([]core.User, error) {
	return []core.User{{ID: adminID, Username: "admin"}}, nil
}

func (f *fakeApp) CreateSale(_ context.Context, in core.CreateSaleInput) (*core.SaleConfirmation, error) {
	f.lastSale = in
	if f.saleErr != nil {
		return nil, f.saleErr
	}
	return &core.SaleConfirmation{SaleID: uuid.New(), SaleNumber: "SL-000042"}, nil
}

func (f *fakeApp) DeleteSale(_ context.Context, id uuid.UUID) error {
	for _, d := range f.deleted {
		if d == id {
			return &core.DomainError{Err: core.ErrNotFound, Message: "sale not found or already deleted"}
		}
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeApp) UpdateSale(_ context.Context, id uuid.UUID, upd core.SaleUpdate) (*core.SaleDetail, error) {
	f.lastUpdate = upd
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	sale := core.Sale{ID: id, SaleNumber: "SL-000042", Status: core.SaleStatusActive}
	if upd.PaymentStatus != nil {
		sale.PaymentStatus = *upd.PaymentStatus
	}
	return &core.SaleDetail{Sale: sale}, nil
}

func (f *fakeApp) ListCategories(context.Context) ([]core.Category, error) {
	return nil, errors.New("connection reset by peer")
}

func (f *fakeApp) ExportReport(_ context.Context, _ app.ReportRequest, format app.ReportFormat, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%%PDF-fake-%s", format)
	return err
}

func newTestHandler(f *fakeApp) (http.Handler, *Handler) {
	h := &Handler{svc: f, jwtSecret: testSecret, tokenTTL: time.Hour}
	return NewHandler(f, Options{AllowedOrigins: "http://till.local", JWTSecret: testSecret, TokenTTL: time.Hour}), h
}

func tokenFor(t *testing.T, h *Handler, id uuid.UUID, role core.Role) string {
	t.Helper()
	tok, err := h.issueToken(&app.UserSession{UserID: id, Username: string(role), Role: role})
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, srv http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

const saleBody = `{
	"customer": {"email": "a@shop.test"},
	"sale": {"subtotal": "20", "total_amount": "20", "payment_method": "cash"},
	"items": [{"product_id": "6f1c1ad4-3b8b-4c47-a0c6-1f6c5d6b1e01", "quantity": 2, "unit_price": "10"}]
}`

func TestHealth(t *testing.T) {
	srv, _ := newTestHandler(&fakeApp{})
	rec := do(t, srv, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLogin(t *testing.T) {
	srv, _ := newTestHandler(&fakeApp{})

	rec := do(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"admin@shop.test","password":"password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, adminID, resp.User.UserID)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// The cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	srv.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)

	rec = do(t, srv, http.MethodPost, "/api/auth/login", "", `{"email":"admin@shop.test","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}

func TestRequireAuth(t *testing.T) {
	srv, h := newTestHandler(&fakeApp{})

	rec := do(t, srv, http.MethodGet, "/api/sales/recent", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/auth/me", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := &Handler{jwtSecret: "other-secret", tokenTTL: time.Hour}
	rec = do(t, srv, http.MethodGet, "/api/auth/me", tokenFor(t, other, adminID, core.RoleAdmin), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "token signed with another secret")

	expired := &Handler{jwtSecret: testSecret, tokenTTL: -time.Minute}
	rec = do(t, srv, http.MethodGet, "/api/auth/me", tokenFor(t, expired, adminID, core.RoleAdmin), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expired token")

	rec = do(t, srv, http.MethodGet, "/api/auth/me", tokenFor(t, h, adminID, core.RoleAdmin), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	srv, h := newTestHandler(&fakeApp{})
	cashier := tokenFor(t, h, cashierID, core.RoleCashier)
	manager := tokenFor(t, h, cashierID, core.RoleManager)
	admin := tokenFor(t, h, adminID, core.RoleAdmin)

	rec := do(t, srv, http.MethodGet, "/api/users", cashier, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, rec).Code)

	rec = do(t, srv, http.MethodGet, "/api/users", manager, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/users", admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/reports/pdf", cashier, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/reports/pdf?start_date=2026-01-01", manager, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec = do(t, srv, http.MethodGet, "/api/reports/excel?start_date=yesterday", manager, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSale(t *testing.T) {
	f := &fakeApp{}
	srv, h := newTestHandler(f)
	token := tokenFor(t, h, cashierID, core.RoleCashier)

	rec := do(t, srv, http.MethodPost, "/api/sales", token, saleBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp saleCreatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SL-000042", resp.SaleNumber)
	assert.True(t, resp.Success)

	require.NotNil(t, f.lastSale.Sale.UserID, "user_id defaults to the caller")
	assert.Equal(t, cashierID, *f.lastSale.Sale.UserID)
	require.Len(t, f.lastSale.Items, 1)
	assert.Equal(t, 2, f.lastSale.Items[0].Quantity)

	rec = do(t, srv, http.MethodPost, "/api/sales", token, `{"items": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeError(t, rec).Code)
}

func TestCreateSale_UserAttribution(t *testing.T) {
	other := uuid.MustParse("00000000-0000-0000-0000-0000000000d1")
	body := strings.Replace(saleBody, `"payment_method": "cash"`,
		`"payment_method": "cash", "user_id": "`+other.String()+`"`, 1)

	tests := []struct {
		role core.Role
		want uuid.UUID
	}{
		{core.RoleCashier, cashierID},
		{core.RoleManager, other},
		{core.RoleAdmin, other},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			f := &fakeApp{}
			srv, h := newTestHandler(f)
			rec := do(t, srv, http.MethodPost, "/api/sales", tokenFor(t, h, cashierID, tt.role), body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			require.NotNil(t, f.lastSale.Sale.UserID)
			assert.Equal(t, tt.want, *f.lastSale.Sale.UserID)
		})
	}
}

func TestUpdateSale(t *testing.T) {
	f := &fakeApp{}
	srv, h := newTestHandler(f)
	token := tokenFor(t, h, cashierID, core.RoleCashier)
	id := uuid.New()

	rec := do(t, srv, http.MethodPut, "/api/sales/"+id.String(), token, `{"payment_status": "paid"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got core.SaleDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "paid", got.PaymentStatus)
	require.NotNil(t, f.lastUpdate.PaymentStatus)
	assert.Nil(t, f.lastUpdate.Notes)

	f.updateErr = &core.DomainError{Err: core.ErrInvalidTransition, Message: "sale is deleted and cannot be changed"}
	rec = do(t, srv, http.MethodPut, "/api/sales/"+id.String(), token, `{"notes": "x"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, rec).Code)

	rec = do(t, srv, http.MethodPut, "/api/sales/not-a-uuid", token, `{"notes": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSale_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&core.DomainError{Err: core.ErrInsufficientStock, Message: "insufficient stock for product Pen: available 1, required 2"},
			http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{&core.DomainError{Err: core.ErrValidation, Message: "payment_method is required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{&core.DomainError{Err: core.ErrUnknownReference, Message: "referenced user does not exist"}, http.StatusBadRequest, "UNKNOWN_REFERENCE"},
		{&core.DomainError{Err: core.ErrDuplicate, Message: "email already exists"}, http.StatusConflict, "DUPLICATE"},
		{errors.New("failed to insert sale: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			srv, h := newTestHandler(&fakeApp{saleErr: tt.err})
			rec := do(t, srv, http.MethodPost, "/api/sales", tokenFor(t, h, cashierID, core.RoleCashier), saleBody)
			assert.Equal(t, tt.status, rec.Code)
			e := decodeError(t, rec)
			assert.Equal(t, tt.code, e.Code)
			assert.NotEmpty(t, e.RequestID)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", e.Error, "storage details must not leak")
			} else {
				assert.Equal(t, tt.err.Error(), e.Error)
			}
		})
	}
}

func TestDeleteSale(t *testing.T) {
	srv, h := newTestHandler(&fakeApp{})
	token := tokenFor(t, h, cashierID, core.RoleCashier)
	id := uuid.New()

	rec := do(t, srv, http.MethodDelete, "/api/sales/"+id.String(), token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/api/sales/"+id.String(), token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/sales/not-a-uuid", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogInternalErrorIsHidden(t *testing.T) {
	srv, h := newTestHandler(&fakeApp{})
	rec := do(t, srv, http.MethodGet, "/api/categories", tokenFor(t, h, cashierID, core.RoleCashier), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestRequestBodyLimit(t *testing.T) {
	srv, h := newTestHandler(&fakeApp{})
	big := `{"notes":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := do(t, srv, http.MethodPost, "/api/sales", tokenFor(t, h, cashierID, core.RoleCashier), big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestHandler(&fakeApp{})

	req := httptest.NewRequest(http.MethodOptions, "/api/sales", nil)
	req.Header.Set("Origin", "http://till.local")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://till.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestHandler(&fakeApp{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}
