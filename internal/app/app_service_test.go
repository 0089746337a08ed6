package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/cache"
	"pos-backend/internal/core"
)

type fakeReports struct {
	core.ReportingService
	statsCalls int
	report     *core.Report
	deadline   bool
	delay      time.Duration
}

func (f *fakeReports) DashboardStats(context.Context) (*core.DashboardStats, error) {
	f.statsCalls++
	return &core.DashboardStats{TodaySales: decimal.NewFromInt(int64(f.statsCalls)), TotalCustomers: 3}, nil
}

func (f *fakeReports) BuildReport(ctx context.Context, from, to *time.Time) (*core.Report, error) {
	_, f.deadline = ctx.Deadline()
	time.Sleep(f.delay)
	return f.report, nil
}

type fakeCustomers struct {
	core.CustomerService
}

func (f *fakeCustomers) Create(_ context.Context, ref core.CustomerRef) (*core.Customer, error) {
	return &core.Customer{ID: uuid.New(), CustomerCode: "CUST-001", Email: ref.Email}, nil
}

func (f *fakeCustomers) Deactivate(context.Context, uuid.UUID) error { return nil }

type fakeSales struct {
	core.SaleService
	err error
}

func (f *fakeSales) CreateSale(context.Context, core.CreateSaleInput) (*core.SaleConfirmation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &core.SaleConfirmation{SaleID: uuid.New(), SaleNumber: "SL-000001"}, nil
}

type fakeUsers struct {
	core.UserService
	created core.NewUserInput
}

func (f *fakeUsers) Create(_ context.Context, in core.NewUserInput) (*core.User, error) {
	f.created = in
	return &core.User{ID: uuid.New(), Username: in.Username, Role: in.Role}, nil
}

func setupTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewWithClient(client, time.Minute), mr
}

func TestAppService_DashboardStatsCachedUntilSale(t *testing.T) {
	c, mr := setupTestCache(t)
	reports := &fakeReports{}
	sales := &fakeSales{}
	svc := NewAppService(Services{Reports: reports, Sales: sales}, c, time.Second)
	ctx := context.Background()

	first, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	second, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reports.statsCalls)
	assert.True(t, first.TodaySales.Equal(second.TodaySales))
	assert.True(t, mr.Exists(cache.KeyDashboardStats))

	_, err = svc.CreateSale(ctx, core.CreateSaleInput{})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.KeyDashboardStats))

	third, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reports.statsCalls)
	assert.True(t, third.TodaySales.Equal(decimal.NewFromInt(2)))
}

func TestAppService_FailedSaleKeepsCache(t *testing.T) {
	c, mr := setupTestCache(t)
	reports := &fakeReports{}
	sales := &fakeSales{err: core.ErrInsufficientStock}
	svc := NewAppService(Services{Reports: reports, Sales: sales}, c, time.Second)
	ctx := context.Background()

	_, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	_, err = svc.CreateSale(ctx, core.CreateSaleInput{})
	assert.True(t, errors.Is(err, core.ErrInsufficientStock))
	assert.True(t, mr.Exists(cache.KeyDashboardStats))
}

func TestAppService_WithoutCache(t *testing.T) {
	reports := &fakeReports{}
	svc := NewAppService(Services{Reports: reports, Sales: &fakeSales{}}, nil, 0)
	ctx := context.Background()

	_, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	_, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, reports.statsCalls)

	_, err = svc.CreateSale(ctx, core.CreateSaleInput{})
	assert.NoError(t, err)
}

func TestAppService_RegisterRole(t *testing.T) {
	users := &fakeUsers{}
	svc := NewAppService(Services{Users: users}, nil, 0)
	ctx := context.Background()
	req := RegisterRequest{Username: "u", Email: "u@shop.test", Password: "password1", Role: core.RoleAdmin}

	_, err := svc.Register(ctx, req, nil)
	require.NoError(t, err)
	assert.Equal(t, core.RoleCashier, users.created.Role, "anonymous registration is always a cashier")

	_, err = svc.Register(ctx, req, &UserSession{Role: core.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, core.RoleCashier, users.created.Role)

	_, err = svc.Register(ctx, req, &UserSession{Role: core.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, core.RoleAdmin, users.created.Role)
}

func TestAppService_ExportReport(t *testing.T) {
	reports := &fakeReports{report: &core.Report{GeneratedAt: time.Now()}}
	svc := NewAppService(Services{Reports: reports}, nil, 5*time.Second)
	ctx := context.Background()

	var pdf bytes.Buffer
	require.NoError(t, svc.ExportReport(ctx, ReportRequest{}, FormatPDF, &pdf))
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))
	assert.True(t, reports.deadline, "report must run under a timeout")

	var xlsx bytes.Buffer
	require.NoError(t, svc.ExportReport(ctx, ReportRequest{}, FormatXLSX, &xlsx))
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")))

	assert.Error(t, svc.ExportReport(ctx, ReportRequest{}, "csv", &xlsx))
}

func TestAppService_ExportReportDeadlineCoversRendering(t *testing.T) {
	// The build step ignores its context and returns after the deadline.
	reports := &fakeReports{report: &core.Report{GeneratedAt: time.Now()}, delay: 60 * time.Millisecond}
	svc := NewAppService(Services{Reports: reports}, nil, 20*time.Millisecond)

	var out bytes.Buffer
	err := svc.ExportReport(context.Background(), ReportRequest{}, FormatPDF, &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, out.Len(), "nothing is written once the deadline has passed")
}

func TestAppService_CustomerChangesInvalidateDashboard(t *testing.T) {
	c, mr := setupTestCache(t)
	svc := NewAppService(Services{Reports: &fakeReports{}, Customers: &fakeCustomers{}}, c, time.Second)
	ctx := context.Background()

	_, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	_, err = svc.CreateCustomer(ctx, core.CustomerRef{Email: "new@shop.test"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.KeyDashboardStats))

	_, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateCustomer(ctx, uuid.New()))
	assert.False(t, mr.Exists(cache.KeyDashboardStats))
}

func TestParseReportDates(t *testing.T) {
	req, err := ParseReportDates("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.NotNil(t, req.From)
	require.NotNil(t, req.To)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *req.From)
	assert.Equal(t, 31, req.To.Day())
	assert.Equal(t, 23, req.To.Hour())

	req, err = ParseReportDates("", "")
	require.NoError(t, err)
	assert.Nil(t, req.From)
	assert.Nil(t, req.To)

	_, err = ParseReportDates("March", "")
	assert.Error(t, err)
}

func TestParseReportFormat(t *testing.T) {
	f, err := ParseReportFormat("excel")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	f, err = ParseReportFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseReportFormat("doc")
	assert.Error(t, err)
}
