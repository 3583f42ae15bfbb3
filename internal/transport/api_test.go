package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	testSecret        = "test-secret"
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "AdminPass123"
	testPassword      = "ValidPass123"
)

func testProducts() []domain.Product {
	was := decimal.NewFromInt(129)
	return []domain.Product{
		{ID: "A", Name: "Studio Headphones", Price: decimal.NewFromInt(100), OriginalPrice: &was, Category: domain.CategoryAudio, Stock: 10, Rating: 4.5, Reviews: 120},
		{ID: "B", Name: "Charging Cable", Price: decimal.NewFromInt(30), Category: domain.CategoryAccessories, Stock: 50, Rating: 4.1, Reviews: 40},
		{ID: "C", Name: "Tablet Mini", Price: decimal.RequireFromString("399.99"), Category: domain.CategoryTablets, Stock: 0, Rating: 4.7, Reviews: 8},
	}
}

// testAPI serves every handler over one in-memory store
type testAPI struct {
	t        *testing.T
	router   http.Handler
	accounts service.AccountService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()

	products, err := catalog.New(testProducts())
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	st := store.NewMemory()
	authorizer := service.NewRoleAuthorizer()
	customerRepo := repository.NewCustomerRepository()
	voucherRepo := repository.NewVoucherRepository()
	ruleRepo := repository.NewLoyaltyRuleRepository()
	txnRepo := repository.NewTransactionRepository()
	orderRepo := repository.NewOrderRepository()

	accounts := service.NewAccountService(st, customerRepo, authorizer, testSecret, time.Hour, logger)
	orders := service.NewOrderService(st, orderRepo, voucherRepo, txnRepo, service.NewSimulatedPaymentProcessor(0, logger), authorizer, logger)
	checkout := service.NewCheckoutService(st, voucherRepo, ruleRepo, orders, decimal.RequireFromString("0.08"), logger)
	vouchers := service.NewVoucherService(st, voucherRepo, authorizer, logger)
	loyalty := service.NewLoyaltyService(st, ruleRepo, txnRepo, customerRepo, products, authorizer, logger)
	sessions := session.NewRegistry(products)

	if _, err := accounts.EnsureAdmin(context.Background(), testAdminEmail, testAdminPassword, "Admin"); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	auth := middleware.AuthMiddleware(accounts, logger)

	NewAccountHandler(accounts, sessions, logger).RegisterRoutes(router, auth)
	NewCatalogHandler(products, catalog.NewEngine(language.English), logger).RegisterRoutes(router)
	NewCartHandler(sessions, logger).RegisterRoutes(router, auth)
	NewOrderHandler(sessions, checkout, orders, nil, logger).RegisterRoutes(router, auth)
	NewVoucherHandler(vouchers, logger).RegisterRoutes(router, auth)
	NewLoyaltyHandler(loyalty, logger).RegisterRoutes(router, auth)

	return &testAPI{t: t, router: router, accounts: accounts}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	if w.Code != http.StatusOK {
		a.t.Fatalf("login %s: status %d: %s", email, w.Code, w.Body.String())
	}
	var resp LoginResponse
	decode(a.t, w, &resp)
	return resp.AccessToken
}

// customer registers an account and returns its id and token
func (a *testAPI) customer(email, name string) (string, string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: email, Password: testPassword, Name: name})
	if w.Code != http.StatusCreated {
		a.t.Fatalf("register %s: status %d: %s", email, w.Code, w.Body.String())
	}
	var profile CustomerProfile
	decode(a.t, w, &profile)
	return profile.ID, a.login(email, testPassword)
}

func (a *testAPI) adminToken() string {
	return a.login(testAdminEmail, testAdminPassword)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Could not decode response %q: %v", w.Body.String(), err)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			ValidationErrors []domain.Violation `json:"validation_errors"`
		} `json:"details"`
	} `json:"error"`
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	decode(t, w, &body)
	return body
}

func fullAddress() domain.Address {
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
