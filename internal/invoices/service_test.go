package invoices

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salesdesk/salesdesk/internal/platform/httpx"
	"github.com/salesdesk/salesdesk/internal/shared"
)

type fakeRepo struct {
	customers map[string]InvoiceCustomer
	users     map[string]InvoiceCreator
	products  map[string]*SaleProduct
	counters  map[string]int64
	invoices  []Invoice

	txCalls   int
	failTxErr error
	failTimes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers: map[string]InvoiceCustomer{},
		users:     map[string]InvoiceCreator{},
		products:  map[string]*SaleProduct{},
		counters:  map[string]int64{},
	}
}

func (f *fakeRepo) snapshot() *fakeRepo {
	cp := newFakeRepo()
	for k, v := range f.customers {
		cp.customers[k] = v
	}
	for k, v := range f.users {
		cp.users[k] = v
	}
	for k, v := range f.products {
		p := *v
		if v.Stock != nil {
			stock := *v.Stock
			p.Stock = &stock
		}
		cp.products[k] = &p
	}
	for k, v := range f.counters {
		cp.counters[k] = v
	}
	cp.invoices = append([]Invoice(nil), f.invoices...)
	return cp
}

// InTx mimics transactional semantics by restoring state when fn fails.
func (f *fakeRepo) InTx(_ context.Context, fn func(TxPort) error) error {
	f.txCalls++
	if f.failTimes > 0 {
		f.failTimes--
		return f.failTxErr
	}
	saved := f.snapshot()
	if err := fn(&fakeTx{repo: f}); err != nil {
		saved.txCalls = f.txCalls
		saved.failTxErr = f.failTxErr
		saved.failTimes = f.failTimes
		*f = *saved
		return err
	}
	return nil
}

func (f *fakeRepo) List(_ context.Context, creatorID string) ([]Invoice, error) {
	out := []Invoice{}
	for _, inv := range f.invoices {
		if creatorID == "" || inv.CreatedBy.ID == creatorID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			return &inv, nil
		}
	}
	return nil, httpx.ErrNotFound
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) Customer(_ context.Context, id string) (*InvoiceCustomer, error) {
	c, ok := t.repo.customers[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &c, nil
}

func (t *fakeTx) Creator(_ context.Context, id string) (*InvoiceCreator, error) {
	u, ok := t.repo.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &u, nil
}

func (t *fakeTx) ProductForSale(_ context.Context, id string) (*SaleProduct, error) {
	p, ok := t.repo.products[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *p
	if p.Stock != nil {
		stock := *p.Stock
		cp.Stock = &stock
	}
	return &cp, nil
}

func (t *fakeTx) NextSequence(_ context.Context, day time.Time) (int64, error) {
	key := day.Format("2006-01-02")
	t.repo.counters[key]++
	return t.repo.counters[key], nil
}

func (t *fakeTx) InsertInvoice(_ context.Context, inv Invoice) error {
	t.repo.invoices = append(t.repo.invoices, inv)
	return nil
}

func (t *fakeTx) DecrementStock(_ context.Context, productID string, qty int64) (bool, error) {
	p := t.repo.products[productID]
	if p.Stock == nil || *p.Stock < qty {
		return false, nil
	}
	*p.Stock -= qty
	return true, nil
}

type fakeCache struct {
	bumps int
}

func (f *fakeCache) Bump(_ context.Context) error {
	f.bumps++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func stockPtr(n int64) *int64 { return &n }

func seedRepo() *fakeRepo {
	repo := newFakeRepo()
	addr := "12 Market St"
	repo.customers["cust-1"] = InvoiceCustomer{ID: "cust-1", Name: "Acme Traders", Phone: "01711000001", Address: &addr}
	repo.users["user-1"] = InvoiceCreator{ID: "user-1", Name: "Jamie", Email: "jamie@example.com", Role: "supervisor"}
	repo.users["admin-1"] = InvoiceCreator{ID: "admin-1", Name: "Dana", Email: "dana@example.com", Role: "admin"}
	repo.products["prod-1"] = &SaleProduct{ID: "prod-1", Name: "Steel Rod", Unit: "kg", Price: 100, Stock: stockPtr(10)}
	repo.products["prod-2"] = &SaleProduct{ID: "prod-2", Name: "Consulting Hour", Unit: "hour", Price: 90}
	return repo
}

var supervisor = shared.Actor{UserID: "user-1", Role: shared.RoleSupervisor}

func TestCreateInvoiceNoDiscount(t *testing.T) {
	repo := seedRepo()
	cache := &fakeCache{}
	svc := NewService(testLogger(), repo, cache)

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, 300.0, inv.Subtotal)
	assert.Equal(t, 0.0, inv.DiscountAmount)
	assert.Equal(t, 300.0, inv.Total)
	assert.Equal(t, int64(7), *repo.products["prod-1"].Stock)
	assert.Equal(t, 1, cache.bumps)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Steel Rod", inv.Items[0].Name)
	assert.Equal(t, 100.0, inv.Items[0].Price)
	assert.Equal(t, 300.0, inv.Items[0].Amount)
}

func TestCreateInvoiceResolvesFullRecords(t *testing.T) {
	svc := NewService(testLogger(), seedRepo(), &fakeCache{})

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "cust-1", inv.Customer.ID)
	assert.Equal(t, "Acme Traders", inv.Customer.Name)
	assert.Equal(t, "01711000001", inv.Customer.Phone)
	require.NotNil(t, inv.Customer.Address)
	assert.Equal(t, "12 Market St", *inv.Customer.Address)

	assert.Equal(t, "user-1", inv.CreatedBy.ID)
	assert.Equal(t, "Jamie", inv.CreatedBy.Name)
	assert.Equal(t, "jamie@example.com", inv.CreatedBy.Email)
	assert.Equal(t, "supervisor", inv.CreatedBy.Role)
}

func TestCreateInvoicePercentageDiscount(t *testing.T) {
	svc := NewService(testLogger(), seedRepo(), &fakeCache{})

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 3}},
		Discount:   &DiscountRequest{Type: DiscountPercentage, Value: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 300.0, inv.Subtotal)
	assert.Equal(t, 30.0, inv.DiscountAmount)
	assert.Equal(t, 270.0, inv.Total)
}

func TestCreateInvoiceFixedDiscountFloorsAtZero(t *testing.T) {
	svc := NewService(testLogger(), seedRepo(), &fakeCache{})

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 1}},
		Discount:   &DiscountRequest{Type: DiscountFixed, Value: 500},
	})
	require.NoError(t, err)

	assert.Equal(t, 100.0, inv.Subtotal)
	assert.Equal(t, 0.0, inv.Total)
}

func TestCreateInvoiceUnknownCustomer(t *testing.T) {
	repo := seedRepo()
	cache := &fakeCache{}
	svc := NewService(testLogger(), repo, cache)

	_, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "missing",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrInvalidReference))
	assert.Empty(t, repo.invoices)
	assert.Equal(t, 0, cache.bumps)
}

func TestCreateInvoiceUnknownProduct(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})

	_, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "missing", Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrInvalidReference))
	assert.Empty(t, repo.invoices)
}

func TestCreateInvoiceInsufficientStockRollsBack(t *testing.T) {
	repo := seedRepo()
	cache := &fakeCache{}
	svc := NewService(testLogger(), repo, cache)

	_, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 11}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Steel Rod")

	// the failed sale must leave no trace
	assert.Empty(t, repo.invoices)
	assert.Equal(t, int64(10), *repo.products["prod-1"].Stock)
	assert.Equal(t, 0, cache.bumps)
}

func TestCreateInvoiceSkipsUntrackedStock(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1000}},
	})
	require.NoError(t, err)
	assert.Equal(t, 90000.0, inv.Subtotal)
	assert.Nil(t, repo.products["prod-2"].Stock)
}

func TestCreateInvoicePriceOverride(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})

	override := 80.0
	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 2, Price: &override}},
	})
	require.NoError(t, err)
	assert.Equal(t, 160.0, inv.Subtotal)
	assert.Equal(t, 80.0, inv.Items[0].Price)
}

func TestCreateInvoiceRetriesSerializationConflict(t *testing.T) {
	repo := seedRepo()
	repo.failTxErr = &pgconn.PgError{Code: "40001"}
	repo.failTimes = 1
	svc := NewService(testLogger(), repo, &fakeCache{})
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	}

	inv, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.txCalls)
	assert.Equal(t, "INV-20260830-001", inv.InvoiceID)
	require.Len(t, inv.Items, 1)
}

func TestCreateInvoiceDoesNotRetryDomainErrors(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})

	_, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "missing",
		Items:      []ItemRequest{{ProductID: "prod-1", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, 1, repo.txCalls)
}

func TestInvoiceNumbering(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	}

	first, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1}},
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-20260830-001", first.InvoiceID)
	assert.Equal(t, "INV-20260830-002", second.InvoiceID)
}

func TestInvoiceNumberingResetsPerDay(t *testing.T) {
	repo := seedRepo()
	svc := NewService(testLogger(), repo, &fakeCache{})

	day := time.Date(2026, time.August, 30, 23, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day }
	_, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1}},
	})
	require.NoError(t, err)

	svc.now = func() time.Time { return day.Add(2 * time.Hour) }
	next, err := svc.Create(context.Background(), supervisor, CreateRequest{
		CustomerID: "cust-1",
		Items:      []ItemRequest{{ProductID: "prod-2", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-20260831-001", next.InvoiceID)
}

func TestFormatInvoiceIDPadsSequence(t *testing.T) {
	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "INV-20260105-007", FormatInvoiceID(day, 7))
	assert.Equal(t, "INV-20260105-042", FormatInvoiceID(day, 42))
	assert.Equal(t, "INV-20260105-1234", FormatInvoiceID(day, 1234))
}

func TestListScopesSupervisorToOwnInvoices(t *testing.T) {
	repo := seedRepo()
	repo.invoices = []Invoice{
		{ID: "inv-1", CreatedBy: InvoiceCreator{ID: "user-1"}},
		{ID: "inv-2", CreatedBy: InvoiceCreator{ID: "user-2"}},
	}
	svc := NewService(testLogger(), repo, &fakeCache{})

	own, err := svc.List(context.Background(), supervisor)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "inv-1", own[0].ID)

	all, err := svc.List(context.Background(), shared.Actor{UserID: "admin-1", Role: shared.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetForbidsOtherSupervisorsInvoice(t *testing.T) {
	repo := seedRepo()
	repo.invoices = []Invoice{{ID: "inv-2", CreatedBy: InvoiceCreator{ID: "user-2"}}}
	svc := NewService(testLogger(), repo, &fakeCache{})

	_, err := svc.Get(context.Background(), supervisor, "inv-2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}
