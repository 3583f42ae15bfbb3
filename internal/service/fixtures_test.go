package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	testNow     = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	testTaxRate = decimal.RequireFromString("0.08")
)

// mockCatalog is a map-backed product lookup
type mockCatalog struct {
	products map[string]domain.Product
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]domain.Product{
		"A": {ID: "A", Name: "Product A", Price: decimal.NewFromInt(100), Category: domain.CategoryAudio, Stock: 10},
		"B": {ID: "B", Name: "Product B", Price: decimal.NewFromInt(30), Category: domain.CategoryAccessories, Stock: 10},
		"C": {ID: "C", Name: "Product C", Price: decimal.RequireFromString("19.99"), Category: domain.CategoryTablets, Stock: 3},
	}}
}

func (m *mockCatalog) FindByID(id string) (domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrUnknownProduct
	}
	return p, nil
}

// failingStore, once failing is set, runs every update to completion and
// then fails the commit
type failingStore struct {
	store.Store
	failing atomic.Bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	if !s.failing.Load() {
		return s.Store.Update(ctx, fn)
	}
	return s.Store.Update(ctx, func(tx store.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errDiskFull
	})
}

// countingStore counts staged writes that reached a successful commit
type countingStore struct {
	store.Store
	writes atomic.Int64
}

type countingTx struct {
	store.Tx
	staged int64
}

func (t *countingTx) PutCollection(key string, value []byte) error {
	t.staged++
	return t.Tx.PutCollection(key, value)
}

func (s *countingStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	var staged int64
	err := s.Store.Update(ctx, func(tx store.Tx) error {
		counted := &countingTx{Tx: tx}
		err := fn(counted)
		staged = counted.staged
		return err
	})
	if err == nil {
		s.writes.Add(staged)
	}
	return err
}

// noDelayPayments approves immediately
type noDelayPayments struct {
	calls int
}

func (p *noDelayPayments) Process(ctx context.Context, method domain.PaymentMethod, amount decimal.Decimal) error {
	p.calls++
	return nil
}

// testShop wires every service over one store with a fixed clock
type testShop struct {
	store    store.Store
	catalog  *mockCatalog
	sessions session.Registry
	payments *noDelayPayments
	orders   OrderService
	checkout CheckoutService
	vouchers VoucherService
	loyalty  LoyaltyService
	accounts AccountService
	admin    domain.Identity
}

func newTestShop(st store.Store) *testShop {
	logger := zap.NewNop()
	catalog := newMockCatalog()
	authorizer := NewRoleAuthorizer()
	payments := &noDelayPayments{}

	customerRepo := repository.NewCustomerRepository()
	voucherRepo := repository.NewVoucherRepository()
	ruleRepo := repository.NewLoyaltyRuleRepository()
	txnRepo := repository.NewTransactionRepository()
	orderRepo := repository.NewOrderRepository()

	orders := NewOrderService(st, orderRepo, voucherRepo, txnRepo, payments, authorizer, logger)
	checkout := NewCheckoutService(st, voucherRepo, ruleRepo, orders, testTaxRate, logger)
	vouchers := NewVoucherService(st, voucherRepo, authorizer, logger)
	loyalty := NewLoyaltyService(st, ruleRepo, txnRepo, customerRepo, catalog, authorizer, logger)
	accounts := NewAccountService(st, customerRepo, authorizer, "test-secret", time.Hour, logger)

	clock := func() time.Time { return testNow }
	orders.(*orderService).now = clock
	checkout.(*checkoutService).now = clock
	vouchers.(*voucherService).now = clock
	loyalty.(*loyaltyService).now = clock
	accounts.(*accountService).now = clock

	return &testShop{
		store:    st,
		catalog:  catalog,
		sessions: session.NewRegistry(catalog),
		payments: payments,
		orders:   orders,
		checkout: checkout,
		vouchers: vouchers,
		loyalty:  loyalty,
		accounts: accounts,
		admin:    domain.Identity{ID: "admin", Role: domain.RoleAdmin},
	}
}

func (s *testShop) session(customerID string) *session.Session {
	return s.sessions.Get(domain.Identity{ID: customerID, Role: domain.RoleCustomer})
}

func (s *testShop) addVoucher(code string, percent int64, minOrder int64) *domain.Voucher {
	v, err := s.vouchers.Create(context.Background(), s.admin, VoucherInput{
		Code:          code,
		Title:         code,
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(percent),
		MinOrderValue: decimal.NewFromInt(minOrder),
		ExpiryDate:    testNow.Add(30 * 24 * time.Hour),
	})
	if err != nil {
		panic(err)
	}
	return v
}

func validAddress() domain.Address {
	return domain.Address{
		FullName: "Ada Lovelace",
		Street:   "12 Analytical Way",
		City:     "London",
		State:    "Greater London",
		ZipCode:  "N1 9GU",
		Country:  "UK",
		Phone:    "+44 20 7946 0000",
	}
}

func checkoutForm(voucherCode string) CheckoutInput {
	return CheckoutInput{Address: validAddress(), PaymentMethod: domain.PaymentCard, VoucherCode: voucherCode}
}
