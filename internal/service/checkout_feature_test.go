package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/store"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
)

type checkoutTestContext struct {
	shop      *testShop
	order     *domain.Order
	err       error
	statusErr error
}

func (c *checkoutTestContext) reset() {
	c.shop = newTestShop(store.NewMemory())
	c.order = nil
	c.err = nil
	c.statusErr = nil
}

func (c *checkoutTestContext) aVoucherForPercentOffOrdersOfAtLeast(code string, percent, minOrder int) error {
	c.shop.addVoucher(code, int64(percent), int64(minOrder))
	return nil
}

func (c *checkoutTestContext) customerHasInTheCart(customerID string, items *godog.Table) error {
	sess := c.shop.session(customerID)
	for i, row := range items.Rows {
		if i == 0 {
			continue // header
		}
		quantity, err := strconv.Atoi(row.Cells[1].Value)
		if err != nil {
			return fmt.Errorf("bad quantity %q: %w", row.Cells[1].Value, err)
		}
		if _, err := sess.Cart.Add(row.Cells[0].Value, quantity); err != nil {
			return err
		}
	}
	return nil
}

func (c *checkoutTestContext) customerChecksOutWithVoucher(customerID, code string) error {
	c.order, c.err = c.shop.checkout.Checkout(context.Background(), c.shop.session(customerID), checkoutForm(code))
	return nil
}

func (c *checkoutTestContext) customerChecksOutWithoutAVoucher(customerID string) error {
	return c.customerChecksOutWithVoucher(customerID, "")
}

func (c *checkoutTestContext) theAdminMovesTheOrderTo(status string) error {
	if c.order == nil {
		return fmt.Errorf("no order placed: %v", c.err)
	}
	_, c.statusErr = c.shop.orders.UpdateStatus(context.Background(), c.shop.admin, c.order.ID, domain.OrderStatus(status))
	return nil
}

func (c *checkoutTestContext) placedOrder() (*domain.Order, error) {
	if c.err != nil {
		return nil, fmt.Errorf("checkout failed: %w", c.err)
	}
	return c.order, nil
}

func (c *checkoutTestContext) amountIs(name string, field func(*domain.Order) decimal.Decimal) func(string) error {
	return func(expected string) error {
		order, err := c.placedOrder()
		if err != nil {
			return err
		}
		want, err := decimal.NewFromString(expected)
		if err != nil {
			return err
		}
		if got := field(order); !got.Equal(want) {
			return fmt.Errorf("expected %s %s, got %s", name, want, got)
		}
		return nil
	}
}

func (c *checkoutTestContext) theOrderEarnsLoyaltyPoints(points int) error {
	order, err := c.placedOrder()
	if err != nil {
		return err
	}
	if order.LoyaltyPointsEarned != int64(points) {
		return fmt.Errorf("expected %d points, got %d", points, order.LoyaltyPointsEarned)
	}
	return nil
}

func (c *checkoutTestContext) voucherIsUsed(code string) error {
	v, err := c.shop.vouchers.Get(context.Background(), code)
	if err != nil {
		return err
	}
	if !v.IsUsed {
		return fmt.Errorf("expected voucher %s to be used", code)
	}
	return nil
}

func (c *checkoutTestContext) voucherIsUnused(code string) error {
	v, err := c.shop.vouchers.Get(context.Background(), code)
	if err != nil {
		return err
	}
	if v.IsUsed {
		return fmt.Errorf("expected voucher %s to be unused", code)
	}
	return nil
}

func (c *checkoutTestContext) theCartOfCustomerIsEmpty(customerID string) error {
	if n := c.shop.session(customerID).Cart.Len(); n != 0 {
		return fmt.Errorf("expected empty cart, found %d entries", n)
	}
	return nil
}

func (c *checkoutTestContext) checkoutFailsWith(code string) error {
	return expectCode(c.err, code)
}

func (c *checkoutTestContext) theStatusUpdateFailsWith(code string) error {
	return expectCode(c.statusErr, code)
}

func (c *checkoutTestContext) theOrderStatusIs(status string) error {
	order, err := c.shop.orders.Get(context.Background(), c.shop.admin, c.order.ID)
	if err != nil {
		return err
	}
	if string(order.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, order.Status)
	}
	return nil
}

func (c *checkoutTestContext) customerHasLoyaltyPoints(customerID string, points int) error {
	summary, err := c.shop.loyalty.Summary(context.Background(), c.shop.admin, customerID)
	if err != nil {
		return err
	}
	if summary.Points != int64(points) {
		return fmt.Errorf("expected %d points, got %d", points, summary.Points)
	}
	return nil
}

func expectCode(err error, code string) error {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		return fmt.Errorf("expected %s error, got %v", code, err)
	}
	if domainErr.Code != code {
		return fmt.Errorf("expected %s error, got %s", code, domainErr.Code)
	}
	return nil
}

func InitializeCheckoutScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a voucher "([^"]*)" for (\d+) percent off orders of at least (\d+)$`, tc.aVoucherForPercentOffOrdersOfAtLeast)
	ctx.Step(`^customer "([^"]*)" has in the cart:$`, tc.customerHasInTheCart)

	// When steps
	ctx.Step(`^customer "([^"]*)" checks out with voucher "([^"]*)"$`, tc.customerChecksOutWithVoucher)
	ctx.Step(`^customer "([^"]*)" checks out without a voucher$`, tc.customerChecksOutWithoutAVoucher)
	ctx.Step(`^the admin moves the order to "([^"]*)"$`, tc.theAdminMovesTheOrderTo)

	// Then steps
	ctx.Step(`^the order subtotal is ([\d.]+)$`, tc.amountIs("subtotal", func(o *domain.Order) decimal.Decimal { return o.Subtotal }))
	ctx.Step(`^the order discount is ([\d.]+)$`, tc.amountIs("discount", func(o *domain.Order) decimal.Decimal { return o.Discount }))
	ctx.Step(`^the order tax is ([\d.]+)$`, tc.amountIs("tax", func(o *domain.Order) decimal.Decimal { return o.Tax }))
	ctx.Step(`^the order total is ([\d.]+)$`, tc.amountIs("total", func(o *domain.Order) decimal.Decimal { return o.Total }))
	ctx.Step(`^the order earns (\d+) loyalty points$`, tc.theOrderEarnsLoyaltyPoints)
	ctx.Step(`^voucher "([^"]*)" is used$`, tc.voucherIsUsed)
	ctx.Step(`^voucher "([^"]*)" is unused$`, tc.voucherIsUnused)
	ctx.Step(`^the cart of customer "([^"]*)" is empty$`, tc.theCartOfCustomerIsEmpty)
	ctx.Step(`^checkout fails with "([^"]*)"$`, tc.checkoutFailsWith)
	ctx.Step(`^the status update fails with "([^"]*)"$`, tc.theStatusUpdateFailsWith)
	ctx.Step(`^the order status is "([^"]*)"$`, tc.theOrderStatusIs)
	ctx.Step(`^customer "([^"]*)" has (\d+) loyalty points$`, tc.customerHasLoyaltyPoints)
}

func TestCheckoutFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCheckoutScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
