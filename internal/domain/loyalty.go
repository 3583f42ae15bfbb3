package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyRule multiplies point accrual for one customer buying one product.
// It applies only while active and inside [StartDate, EndDate].
type LoyaltyRule struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	CustomerName     string          `json:"customer_name,omitempty"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name,omitempty"`
	PointsMultiplier decimal.Decimal `json:"points_multiplier"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Validate checks the rule's fields
func (r LoyaltyRule) Validate() error {
	switch {
	case r.CustomerID == "":
		return FieldError(ErrInvalidLoyaltyRule, "customer_id", "This field is required")
	case r.ProductID == "":
		return FieldError(ErrInvalidLoyaltyRule, "product_id", "This field is required")
	case r.PointsMultiplier.LessThan(decimal.NewFromInt(1)):
		return FieldError(ErrInvalidLoyaltyRule, "points_multiplier", "multiplier must be at least 1")
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return FieldError(ErrInvalidLoyaltyRule, "start_date", "start and end dates are required")
	case r.EndDate.Before(r.StartDate):
		return FieldError(ErrInvalidLoyaltyRule, "end_date", "end date must not precede start date")
	}
	return nil
}

// AppliesAt reports whether the rule is active and at falls inside its window
func (r LoyaltyRule) AppliesAt(at time.Time) bool {
	return r.IsActive && !at.Before(r.StartDate) && !at.After(r.EndDate)
}

// TransactionType classifies a points ledger entry
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionRefund   TransactionType = "refund"
)

// Transaction is an append-only points ledger entry. Balances are derived by
// replaying a customer's transactions.
type Transaction struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	CustomerID   string          `json:"customer_id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	PointsEarned int64           `json:"points_earned"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
}

// MembershipTier is derived from the points balance
type MembershipTier string

const (
	TierBronze   MembershipTier = "Bronze"
	TierSilver   MembershipTier = "Silver"
	TierGold     MembershipTier = "Gold"
	TierPlatinum MembershipTier = "Platinum"
)

var tierThresholds = []struct {
	tier MembershipTier
	min  int64
}{
	{TierPlatinum, 1500},
	{TierGold, 1000},
	{TierSilver, 500},
	{TierBronze, 0},
}

// TierFor returns the membership tier for a points balance
func TierFor(points int64) MembershipTier {
	for _, t := range tierThresholds {
		if points >= t.min {
			return t.tier
		}
	}
	return TierBronze
}

// PointsToNextTier returns how many points reach the next tier; ok is false at the top tier
func PointsToNextTier(points int64) (remaining int64, ok bool) {
	for i := len(tierThresholds) - 1; i >= 0; i-- {
		if tierThresholds[i].min > points {
			return tierThresholds[i].min - points, true
		}
	}
	return 0, false
}
