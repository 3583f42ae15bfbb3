// Package pricing computes the chargeable total of a cart snapshot.
package pricing

import (
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// VoucherOutcome explains what happened to the supplied voucher
type VoucherOutcome string

const (
	VoucherNone         VoucherOutcome = "none"
	VoucherApplied      VoucherOutcome = "applied"
	VoucherUsed         VoucherOutcome = "used"
	VoucherExpired      VoucherOutcome = "expired"
	VoucherBelowMinimum VoucherOutcome = "below_minimum"
)

// Input is everything the total depends on
type Input struct {
	CustomerID string
	Snapshot   cart.Snapshot
	TaxRate    decimal.Decimal
	Voucher    *domain.Voucher
	Rules      []domain.LoyaltyRule
	At         time.Time
}

// Quote is the resolver output. Amounts are exact; round only for display.
type Quote struct {
	CustomerID          string          `json:"customer_id"`
	Snapshot            cart.Snapshot   `json:"snapshot"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Discount            decimal.Decimal `json:"discount"`
	TaxableAmount       decimal.Decimal `json:"taxable_amount"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
	Tax                 decimal.Decimal `json:"tax"`
	Total               decimal.Decimal `json:"total"`
	VoucherCode         string          `json:"voucher_code,omitempty"`
	VoucherOutcome      VoucherOutcome  `json:"voucher_outcome"`
	PointsMultiplier    decimal.Decimal `json:"points_multiplier"`
	LoyaltyPointsEarned int64           `json:"loyalty_points_earned"`
	ComputedAt          time.Time       `json:"computed_at"`
}

// AppliesVoucher reports whether the quote's discount comes from a voucher
func (q Quote) AppliesVoucher() bool {
	return q.VoucherOutcome == VoucherApplied
}

var one = decimal.NewFromInt(1)

// ComputeTotal resolves subtotal, discount, tax, total and points, in that
// order. It has no side effects; the voucher is not marked used here.
func ComputeTotal(in Input) Quote {
	q := Quote{
		CustomerID:       in.CustomerID,
		Snapshot:         in.Snapshot,
		TaxRate:          in.TaxRate,
		VoucherOutcome:   VoucherNone,
		PointsMultiplier: one,
		ComputedAt:       in.At,
	}

	// 1. subtotal from the snapshot
	q.Subtotal = in.Snapshot.Subtotal()

	// 2. at most one voucher
	q.Discount = decimal.Zero
	if in.Voucher != nil {
		q.VoucherCode = in.Voucher.Code
		q.VoucherOutcome = voucherOutcome(in.Voucher, q.Subtotal, in.At)
		if q.VoucherOutcome == VoucherApplied {
			q.Discount = in.Voucher.DiscountFor(q.Subtotal)
		}
	}

	// 3. taxable amount never negative
	q.TaxableAmount = decimal.Max(q.Subtotal.Sub(q.Discount), decimal.Zero)

	// 4-5. tax and total
	q.Tax = q.TaxableAmount.Mul(in.TaxRate)
	q.Total = q.TaxableAmount.Add(q.Tax)

	// 6. one point per currency unit spent, post-discount and pre-tax
	q.PointsMultiplier = bestMultiplier(in.CustomerID, in.Snapshot, in.Rules, in.At)
	q.LoyaltyPointsEarned = q.TaxableAmount.Mul(q.PointsMultiplier).Floor().IntPart()

	return q
}

// voucherOutcome decides whether v may discount subtotal at the given instant
func voucherOutcome(v *domain.Voucher, subtotal decimal.Decimal, at time.Time) VoucherOutcome {
	switch {
	case v.IsUsed:
		return VoucherUsed
	case v.Expired(at):
		return VoucherExpired
	case subtotal.LessThan(v.MinOrderValue):
		return VoucherBelowMinimum
	default:
		return VoucherApplied
	}
}

// bestMultiplier picks the highest multiplier among rules for this customer
// that cover any product in the snapshot and apply at the given instant.
func bestMultiplier(customerID string, snapshot cart.Snapshot, rules []domain.LoyaltyRule, at time.Time) decimal.Decimal {
	inCart := make(map[string]bool, len(snapshot.Items))
	for _, id := range snapshot.ProductIDs() {
		inCart[id] = true
	}

	best := one
	for _, rule := range rules {
		if rule.CustomerID != customerID || !inCart[rule.ProductID] || !rule.AppliesAt(at) {
			continue
		}
		if rule.PointsMultiplier.GreaterThan(best) {
			best = rule.PointsMultiplier
		}
	}
	return best
}
