package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutInput is the checkout form plus an optional voucher code
type CheckoutInput struct {
	Address       domain.Address
	PaymentMethod domain.PaymentMethod
	VoucherCode   string
}

// CheckoutService prices a session's cart and places it as an order
type CheckoutService interface {
	Quote(ctx context.Context, sess *session.Session, voucherCode string) (pricing.Quote, error)
	Checkout(ctx context.Context, sess *session.Session, in CheckoutInput) (*domain.Order, error)
}

type checkoutService struct {
	store       store.Store
	voucherRepo repository.VoucherRepository
	ruleRepo    repository.LoyaltyRuleRepository
	orders      OrderService
	taxRate     decimal.Decimal
	logger      *zap.Logger
	now         func() time.Time
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	st store.Store,
	voucherRepo repository.VoucherRepository,
	ruleRepo repository.LoyaltyRuleRepository,
	orders OrderService,
	taxRate decimal.Decimal,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		store:       st,
		voucherRepo: voucherRepo,
		ruleRepo:    ruleRepo,
		orders:      orders,
		taxRate:     taxRate,
		logger:      logger.Named("checkout"),
		now:         time.Now,
	}
}

// Quote snapshots the cart and resolves its total. An unknown voucher code is
// an error; a known but ineligible voucher yields a zero discount and its reason.
func (s *checkoutService) Quote(ctx context.Context, sess *session.Session, voucherCode string) (pricing.Quote, error) {
	now := s.now()
	snapshot := sess.Cart.Snapshot(now)
	code := cleanVoucherCode(voucherCode)

	var voucher *domain.Voucher
	var rules []domain.LoyaltyRule
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		if code != "" {
			voucher, err = s.voucherRepo.FindByCode(tx, code)
			if err != nil {
				return err
			}
		}
		rules, err = s.ruleRepo.FindByCustomer(tx, sess.Identity.ID)
		return err
	})
	if err != nil {
		return pricing.Quote{}, err
	}

	quote := pricing.ComputeTotal(pricing.Input{
		CustomerID: sess.Identity.ID,
		Snapshot:   snapshot,
		TaxRate:    s.taxRate,
		Voucher:    voucher,
		Rules:      rules,
		At:         now,
	})

	if voucher != nil && !quote.AppliesVoucher() {
		s.logger.Debug("Voucher not applied",
			zap.String("code", code),
			zap.String("reason", string(quote.VoucherOutcome)),
		)
	}
	return quote, nil
}

// Checkout quotes the cart and places the order in one call
func (s *checkoutService) Checkout(ctx context.Context, sess *session.Session, in CheckoutInput) (*domain.Order, error) {
	if sess.Cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	quote, err := s.Quote(ctx, sess, in.VoucherCode)
	if err != nil {
		return nil, err
	}

	return s.orders.Place(ctx, sess, PlaceInput{Address: in.Address, PaymentMethod: in.PaymentMethod}, quote)
}
