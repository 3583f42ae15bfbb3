package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions is the directed status graph. Delivered and cancelled
// have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

// OrderStatuses lists every status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether next is directly reachable from s
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses directly reachable from s
func (s OrderStatus) NextStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// CartEntry is a product and its quantity. Quantity is always at least 1.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price times quantity
func (e CartEntry) LineTotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Order is a committed purchase. Only Status and UpdatedAt change after creation.
type Order struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	Items               []CartEntry     `json:"items"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Discount            decimal.Decimal `json:"discount"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
	VoucherCode         string          `json:"voucher_code,omitempty"`
	LoyaltyPointsEarned int64           `json:"loyalty_points_earned"`
	Status              OrderStatus     `json:"status"`
	ShippingAddress     Address         `json:"shipping_address"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ItemCount is the sum of quantities across the order
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// TransitionTo moves the order along the status graph and bumps UpdatedAt
func (o *Order) TransitionTo(next OrderStatus, at time.Time) error {
	if !next.Valid() {
		return FieldError(ErrInvalidStatus, "status", string(next))
	}
	if !o.Status.CanTransitionTo(next) {
		return WithMessage(ErrInvalidTransition,
			"cannot move order from "+string(o.Status)+" to "+string(next))
	}
	o.Status = next
	o.UpdatedAt = at
	return nil
}
