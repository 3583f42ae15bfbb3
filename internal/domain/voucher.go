package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a voucher's value is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Voucher is a single-use, code-identified discount. IsUsed only ever moves
// from false to true, and UsedDate is stamped at that moment.
type Voucher struct {
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	IsUsed        bool            `json:"is_used"`
	UsedDate      *time.Time      `json:"used_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate checks the discount range for the voucher's type
func (v Voucher) Validate() error {
	if v.Code == "" {
		return FieldError(ErrInvalidVoucher, "code", "This field is required")
	}
	if v.MinOrderValue.IsNegative() {
		return FieldError(ErrInvalidVoucher, "min_order_value", "minimum order value must not be negative")
	}
	if v.ExpiryDate.IsZero() {
		return FieldError(ErrInvalidVoucher, "expiry_date", "This field is required")
	}

	switch v.DiscountType {
	case DiscountPercentage:
		if !v.DiscountValue.IsPositive() || v.DiscountValue.GreaterThan(hundred) {
			return FieldError(ErrInvalidVoucher, "discount_value", "percentage must be greater than 0 and at most 100")
		}
	case DiscountFixed:
		if v.DiscountValue.IsNegative() {
			return FieldError(ErrInvalidVoucher, "discount_value", "fixed discount must not be negative")
		}
	default:
		return FieldError(ErrInvalidVoucher, "discount_type", "must be percentage or fixed")
	}
	return nil
}

// Expired reports whether at is past the expiry instant
func (v Voucher) Expired(at time.Time) bool {
	return at.After(v.ExpiryDate)
}

// DiscountFor returns the discount this voucher grants on subtotal, ignoring
// usage, expiry and minimum order value. A fixed discount never exceeds subtotal.
func (v Voucher) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch v.DiscountType {
	case DiscountPercentage:
		return subtotal.Mul(v.DiscountValue).Div(hundred)
	case DiscountFixed:
		return decimal.Min(v.DiscountValue, subtotal)
	default:
		return decimal.Zero
	}
}

// MarkUsed performs the irreversible used transition
func (v *Voucher) MarkUsed(at time.Time) error {
	if v.IsUsed {
		return WithMessage(ErrVoucherAlreadyUsed, "voucher "+v.Code+" has already been used")
	}
	usedAt := at
	v.IsUsed = true
	v.UsedDate = &usedAt
	return nil
}

// VoucherRedemption records a voucher applied to a placed order
type VoucherRedemption struct {
	ID              string          `json:"id"`
	VoucherCode     string          `json:"voucher_code"`
	CustomerID      string          `json:"customer_id"`
	OrderID         string          `json:"order_id"`
	OrderTotal      decimal.Decimal `json:"order_total"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	RedeemedAt      time.Time       `json:"redeemed_at"`
}
