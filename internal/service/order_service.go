package service

import (
	"context"
	"slices"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"
	"storefront/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceInput carries the checkout form
type PlaceInput struct {
	Address       domain.Address
	PaymentMethod domain.PaymentMethod
}

// OrderStats summarizes all orders for the admin dashboard
type OrderStats struct {
	TotalRevenue decimal.Decimal            `json:"total_revenue"`
	OrderCount   int                        `json:"order_count"`
	PendingCount int                        `json:"pending_count"`
	ByStatus     map[domain.OrderStatus]int `json:"by_status"`
}

// OrderService defines the interface for the order lifecycle
type OrderService interface {
	Place(ctx context.Context, sess *session.Session, in PlaceInput, quote pricing.Quote) (*domain.Order, error)
	UpdateStatus(ctx context.Context, caller domain.Identity, orderID string, status domain.OrderStatus) (*domain.Order, error)
	Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error)
	ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	ListAll(ctx context.Context, caller domain.Identity) ([]domain.Order, error)
	Stats(ctx context.Context, caller domain.Identity) (*OrderStats, error)
}

type orderService struct {
	store       store.Store
	orderRepo   repository.OrderRepository
	voucherRepo repository.VoucherRepository
	txnRepo     repository.TransactionRepository
	payments    PaymentProcessor
	authorizer  Authorizer
	logger      *zap.Logger
	now         func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	st store.Store,
	orderRepo repository.OrderRepository,
	voucherRepo repository.VoucherRepository,
	txnRepo repository.TransactionRepository,
	payments PaymentProcessor,
	authorizer Authorizer,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		store:       st,
		orderRepo:   orderRepo,
		voucherRepo: voucherRepo,
		txnRepo:     txnRepo,
		payments:    payments,
		authorizer:  authorizer,
		logger:      logger.Named("orders"),
		now:         time.Now,
	}
}

// Place turns a priced cart snapshot into a pending order. The order, the
// voucher's used flag, the redemption record and the purchase transaction
// are committed together; the session's cart is cleared only after that
// commit succeeds.
func (s *orderService) Place(ctx context.Context, sess *session.Session, in PlaceInput, quote pricing.Quote) (*domain.Order, error) {
	if quote.Snapshot.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}
	if err := in.Address.Validate(); err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, domain.FieldError(domain.ErrInvalidPayment, "payment_method", "must be one of card, paypal, cod, upi")
	}
	if quote.CustomerID != sess.Identity.ID {
		return nil, domain.WithMessage(domain.ErrForbidden, "quote belongs to another customer")
	}

	if err := s.payments.Process(ctx, in.PaymentMethod, quote.Total); err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:                  uuid.NewString(),
		UserID:              sess.Identity.ID,
		Items:               slices.Clone(quote.Snapshot.Items),
		Subtotal:            quote.Subtotal,
		Discount:            quote.Discount,
		Tax:                 quote.Tax,
		Total:               quote.Total,
		LoyaltyPointsEarned: quote.LoyaltyPointsEarned,
		Status:              domain.OrderStatusPending,
		ShippingAddress:     in.Address,
		PaymentMethod:       in.PaymentMethod,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if quote.AppliesVoucher() {
		order.VoucherCode = quote.VoucherCode
	}

	err := update(ctx, s.store, func(tx store.Tx) error {
		if order.VoucherCode != "" {
			if err := s.redeemVoucher(tx, order, now); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Create(tx, order); err != nil {
			return err
		}
		return s.txnRepo.Append(tx, &domain.Transaction{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			CustomerID:   order.UserID,
			Type:         domain.TransactionPurchase,
			Amount:       order.Total,
			PointsEarned: order.LoyaltyPointsEarned,
			Date:         now,
			Description:  "Order " + order.ID,
		})
	})
	if err != nil {
		s.logger.Warn("Order placement rolled back",
			zap.String("customer_id", sess.Identity.ID),
			zap.Error(err),
		)
		return nil, err
	}

	sess.Cart.Clear()

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.UserID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("voucher", order.VoucherCode),
		zap.Int64("points", order.LoyaltyPointsEarned),
	)
	return order, nil
}

// redeemVoucher flips the voucher used and logs the redemption inside tx
func (s *orderService) redeemVoucher(tx store.Tx, order *domain.Order, at time.Time) error {
	voucher, err := s.voucherRepo.FindByCode(tx, order.VoucherCode)
	if err != nil {
		return err
	}
	if err := voucher.MarkUsed(at); err != nil {
		return err
	}
	if err := s.voucherRepo.Update(tx, voucher); err != nil {
		return err
	}
	return s.voucherRepo.AddRedemption(tx, &domain.VoucherRedemption{
		ID:              uuid.NewString(),
		VoucherCode:     voucher.Code,
		CustomerID:      order.UserID,
		OrderID:         order.ID,
		OrderTotal:      order.Total,
		DiscountApplied: order.Discount,
		RedeemedAt:      at,
	})
}

// UpdateStatus moves an order along the status graph. Cancelling reverses the
// purchase in the points ledger; a redeemed voucher stays used.
func (s *orderService) UpdateStatus(ctx context.Context, caller domain.Identity, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageOrders); err != nil {
		return nil, err
	}

	var order *domain.Order
	var previous domain.OrderStatus
	err := update(ctx, s.store, func(tx store.Tx) error {
		var err error
		order, err = s.orderRepo.FindByID(tx, orderID)
		if err != nil {
			return err
		}

		now := s.now()
		previous = order.Status
		if err := order.TransitionTo(status, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(tx, order); err != nil {
			return err
		}

		if status != domain.OrderStatusCancelled {
			return nil
		}
		return s.txnRepo.Append(tx, &domain.Transaction{
			ID:           uuid.NewString(),
			OrderID:      order.ID,
			CustomerID:   order.UserID,
			Type:         domain.TransactionRefund,
			Amount:       order.Total.Neg(),
			PointsEarned: -order.LoyaltyPointsEarned,
			Date:         now,
			Description:  "Refund for order " + order.ID,
		})
	})
	if err != nil {
		s.logger.Debug("Status update rejected",
			zap.String("order_id", orderID),
			zap.String("requested", string(status)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)
	return order, nil
}

// Get returns one order to its owner or to an admin
func (s *orderService) Get(ctx context.Context, caller domain.Identity, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		order, err = s.orderRepo.FindByID(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if order.UserID != caller.ID {
		if err := s.authorizer.Authorize(caller, CapabilityViewAllOrders); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// ListForCustomer returns a customer's orders, most recent first
func (s *orderService) ListForCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	var orders []domain.Order
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		orders, err = s.orderRepo.FindByCustomer(tx, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(orders), nil
}

// ListAll returns every order, most recent first, to callers allowed to see them
func (s *orderService) ListAll(ctx context.Context, caller domain.Identity) ([]domain.Order, error) {
	if err := s.authorizer.Authorize(caller, CapabilityViewAllOrders); err != nil {
		return nil, err
	}

	var orders []domain.Order
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		orders, err = s.orderRepo.FindAll(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newestFirst(orders), nil
}

// Stats sums revenue over every recorded order and counts orders by status
func (s *orderService) Stats(ctx context.Context, caller domain.Identity) (*OrderStats, error) {
	orders, err := s.ListAll(ctx, caller)
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{
		TotalRevenue: decimal.Zero,
		OrderCount:   len(orders),
		ByStatus:     make(map[domain.OrderStatus]int, len(domain.OrderStatuses)),
	}
	for _, status := range domain.OrderStatuses {
		stats.ByStatus[status] = 0
	}
	for _, o := range orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.Total)
		stats.ByStatus[o.Status]++
	}
	stats.PendingCount = stats.ByStatus[domain.OrderStatusPending]
	return stats, nil
}

// newestFirst sorts by createdAt descending; orders placed at the same
// instant keep reverse placement order
func newestFirst(orders []domain.Order) []domain.Order {
	slices.Reverse(orders)
	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders
}
