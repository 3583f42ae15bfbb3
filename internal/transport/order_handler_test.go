package transport

import (
	"net/http"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (a *testAPI) createVoucher(adminToken, code string, percent int64) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/admin/vouchers", adminToken, VoucherRequest{
		Code:          code,
		Title:         code + " off",
		DiscountType:  "percentage",
		DiscountValue: decimal.NewFromInt(percent),
		MinOrderValue: decimal.NewFromInt(50),
		ExpiryDate:    time.Now().Add(30 * 24 * time.Hour),
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *testAPI) addToCart(token, productID string, qty int) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/cart/items", token, AddItemRequest{ProductID: productID, Quantity: &qty})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	customerID, token := api.customer("ada@example.com", "Ada")
	api.createVoucher(admin, "SAVE20", 20)

	api.addToCart(token, "A", 2)

	// codes match exactly
	w := api.do(http.MethodPost, "/api/checkout/quote", token, QuoteRequest{VoucherCode: "save20"})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Equal(t, "VoucherNotFound", errorOf(t, w).Error.Code)

	w = api.do(http.MethodPost, "/api/checkout/quote", token, QuoteRequest{VoucherCode: "SAVE20"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var quote pricing.Quote
	decode(t, w, &quote)
	assert.Equal(t, pricing.VoucherApplied, quote.VoucherOutcome)
	assert.True(t, dec("172.8").Equal(quote.Total), "quote total %s", quote.Total)

	w = api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{
		Address:       fullAddress(),
		PaymentMethod: "card",
		VoucherCode:   " SAVE20 ",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	decode(t, w, &order)
	assert.Equal(t, customerID, order.UserID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "SAVE20", order.VoucherCode)
	assert.True(t, dec("40").Equal(order.Discount))
	assert.True(t, dec("12.8").Equal(order.Tax))
	assert.True(t, dec("172.8").Equal(order.Total))
	assert.Equal(t, int64(160), order.LoyaltyPointsEarned)

	// cart is cleared after placement
	w = api.do(http.MethodGet, "/api/cart", token, nil)
	var cartView CartView
	decode(t, w, &cartView)
	assert.Empty(t, cartView.Items)

	// the voucher is spent
	api.addToCart(token, "A", 1)
	w = api.do(http.MethodPost, "/api/checkout/quote", token, QuoteRequest{VoucherCode: "SAVE20"})
	decode(t, w, &quote)
	assert.Equal(t, pricing.VoucherUsed, quote.VoucherOutcome)
	assert.True(t, decimal.Zero.Equal(quote.Discount))

	w = api.do(http.MethodGet, "/api/loyalty", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.LoyaltySummary
	decode(t, w, &summary)
	assert.Equal(t, int64(160), summary.Points)
	assert.Equal(t, domain.TierBronze, summary.Tier)

	w = api.do(http.MethodGet, "/api/orders", token, nil)
	var mine OrderListResponse
	decode(t, w, &mine)
	require.Equal(t, 1, mine.Count)
	assert.Equal(t, order.ID, mine.Orders[0].ID)

	w = api.do(http.MethodGet, "/api/admin/vouchers/redemptions", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var redemptions []domain.VoucherRedemption
	decode(t, w, &redemptions)
	assert.Len(t, redemptions, 1)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	_, token := api.customer("ada@example.com", "Ada")
	_, other := api.customer("bob@example.com", "Bob")

	api.addToCart(token, "B", 1)
	w := api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{Address: fullAddress(), PaymentMethod: "cod"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	decode(t, w, &order)

	statusPath := "/api/admin/orders/" + order.ID + "/status"

	w = api.do(http.MethodPut, statusPath, token, StatusRequest{Status: "processing"})
	assert.Equal(t, http.StatusForbidden, w.Code, "customers cannot change status")

	w = api.do(http.MethodPut, statusPath, admin, StatusRequest{Status: "delivered"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidTransition", errorOf(t, w).Error.Code)

	w = api.do(http.MethodPut, statusPath, admin, StatusRequest{Status: "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidStatus", errorOf(t, w).Error.Code)

	for _, next := range []string{"processing", "shipped", "delivered"} {
		w = api.do(http.MethodPut, statusPath, admin, StatusRequest{Status: next})
		require.Equal(t, http.StatusOK, w.Code, "to %s: %s", next, w.Body.String())
	}

	w = api.do(http.MethodGet, "/api/orders/"+order.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "orders are private to their owner")

	w = api.do(http.MethodGet, "/api/orders/"+order.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)

	w = api.do(http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.OrderStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.OrderCount)
	assert.Equal(t, 0, stats.PendingCount)
	assert.True(t, dec("32.4").Equal(stats.TotalRevenue))

	w = api.do(http.MethodGet, "/api/orders/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutRejections(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.customer("ada@example.com", "Ada")

	t.Run("empty cart", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{Address: fullAddress(), PaymentMethod: "card"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "EmptyCart", errorOf(t, w).Error.Code)
	})

	api.addToCart(token, "A", 1)

	t.Run("incomplete address lists every missing field", func(t *testing.T) {
		address := fullAddress()
		address.City = ""
		address.ZipCode = " "
		w := api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{Address: address, PaymentMethod: "card"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := errorOf(t, w)
		assert.Equal(t, "IncompleteAddress", body.Error.Code)
		fields := []string{}
		for _, v := range body.Error.Details.ValidationErrors {
			fields = append(fields, v.Field)
		}
		assert.ElementsMatch(t, []string{"city", "zip_code"}, fields)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{Address: fullAddress(), PaymentMethod: "barter"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "InvalidPaymentMethod", errorOf(t, w).Error.Code)
	})

	t.Run("unknown voucher", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/checkout", token, CheckoutRequest{Address: fullAddress(), PaymentMethod: "card", VoucherCode: "NOPE"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "VoucherNotFound", errorOf(t, w).Error.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/checkout", "", CheckoutRequest{Address: fullAddress(), PaymentMethod: "card"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	// nothing above touched the cart
	w := api.do(http.MethodGet, "/api/cart", token, nil)
	var cartView CartView
	decode(t, w, &cartView)
	assert.Len(t, cartView.Items, 1)
}

func TestAdminVoucherAndRuleBooks(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken()
	customerID, token := api.customer("ada@example.com", "Ada")

	w := api.do(http.MethodPost, "/api/admin/vouchers", token, VoucherRequest{DiscountType: "fixed", ExpiryDate: time.Now().Add(time.Hour)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPost, "/api/admin/vouchers", admin, VoucherRequest{
		DiscountType:  "fixed",
		DiscountValue: decimal.NewFromInt(15),
		ExpiryDate:    time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var voucher domain.Voucher
	decode(t, w, &voucher)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, voucher.Code)

	w = api.do(http.MethodPost, "/api/admin/vouchers", admin, VoucherRequest{
		DiscountType:  "percentage",
		DiscountValue: decimal.NewFromInt(150),
		ExpiryDate:    time.Now().Add(time.Hour),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidVoucher", errorOf(t, w).Error.Code)

	w = api.do(http.MethodGet, "/api/vouchers", token, nil)
	var available []domain.Voucher
	decode(t, w, &available)
	assert.Len(t, available, 1)

	w = api.do(http.MethodDelete, "/api/admin/vouchers/"+voucher.Code, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/admin/vouchers/"+voucher.Code, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	now := time.Now()
	w = api.do(http.MethodPost, "/api/admin/loyalty-rules", admin, LoyaltyRuleRequest{
		CustomerID:       customerID,
		ProductID:        "A",
		PointsMultiplier: decimal.NewFromInt(3),
		StartDate:        now.Add(-time.Hour),
		EndDate:          now.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var rule domain.LoyaltyRule
	decode(t, w, &rule)
	assert.True(t, rule.IsActive)
	assert.Equal(t, "Studio Headphones", rule.ProductName)

	api.addToCart(token, "A", 1)
	w = api.do(http.MethodPost, "/api/checkout/quote", token, QuoteRequest{})
	var quote pricing.Quote
	decode(t, w, &quote)
	assert.Equal(t, int64(300), quote.LoyaltyPointsEarned)

	w = api.do(http.MethodPost, "/api/admin/loyalty-rules/"+rule.ID+"/toggle", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodPost, "/api/checkout/quote", token, QuoteRequest{})
	decode(t, w, &quote)
	assert.Equal(t, int64(100), quote.LoyaltyPointsEarned)

	w = api.do(http.MethodDelete, "/api/admin/loyalty-rules/"+rule.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodPost, "/api/admin/loyalty-rules/"+rule.ID+"/toggle", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func decInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
