package service

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LoyaltyRuleInput carries the editable fields of a loyalty rule
type LoyaltyRuleInput struct {
	CustomerID       string
	ProductID        string
	PointsMultiplier decimal.Decimal
	StartDate        time.Time
	EndDate          time.Time
	IsActive         bool
}

// LoyaltySummary is a customer's derived points position
type LoyaltySummary struct {
	CustomerID       string                `json:"customer_id"`
	Points           int64                 `json:"points"`
	Tier             domain.MembershipTier `json:"tier"`
	PointsToNextTier *int64                `json:"points_to_next_tier,omitempty"`
	TotalSpent       decimal.Decimal       `json:"total_spent"`
	Transactions     []domain.Transaction  `json:"transactions"`
}

// ProductNamer resolves product names for display on rules
type ProductNamer interface {
	FindByID(id string) (domain.Product, error)
}

// LoyaltyService defines the interface for the loyalty rule book and points ledger
type LoyaltyService interface {
	CreateRule(ctx context.Context, caller domain.Identity, in LoyaltyRuleInput) (*domain.LoyaltyRule, error)
	UpdateRule(ctx context.Context, caller domain.Identity, id string, in LoyaltyRuleInput) (*domain.LoyaltyRule, error)
	ToggleRule(ctx context.Context, caller domain.Identity, id string) (*domain.LoyaltyRule, error)
	DeleteRule(ctx context.Context, caller domain.Identity, id string) error
	ListRules(ctx context.Context, caller domain.Identity) ([]domain.LoyaltyRule, error)
	RulesFor(ctx context.Context, customerID string) ([]domain.LoyaltyRule, error)
	Summary(ctx context.Context, caller domain.Identity, customerID string) (*LoyaltySummary, error)
}

type loyaltyService struct {
	store        store.Store
	ruleRepo     repository.LoyaltyRuleRepository
	txnRepo      repository.TransactionRepository
	customerRepo repository.CustomerRepository
	products     ProductNamer
	authorizer   Authorizer
	logger       *zap.Logger
	now          func() time.Time
}

// NewLoyaltyService creates a new instance of LoyaltyService
func NewLoyaltyService(
	st store.Store,
	ruleRepo repository.LoyaltyRuleRepository,
	txnRepo repository.TransactionRepository,
	customerRepo repository.CustomerRepository,
	products ProductNamer,
	authorizer Authorizer,
	logger *zap.Logger,
) LoyaltyService {
	return &loyaltyService{
		store:        st,
		ruleRepo:     ruleRepo,
		txnRepo:      txnRepo,
		customerRepo: customerRepo,
		products:     products,
		authorizer:   authorizer,
		logger:       logger.Named("loyalty"),
		now:          time.Now,
	}
}

// CreateRule adds a rule for an existing customer and catalog product
func (s *loyaltyService) CreateRule(ctx context.Context, caller domain.Identity, in LoyaltyRuleInput) (*domain.LoyaltyRule, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageLoyalty); err != nil {
		return nil, err
	}

	now := s.now()
	rule := &domain.LoyaltyRule{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}

	err := update(ctx, s.store, func(tx store.Tx) error {
		if err := s.apply(tx, rule, in); err != nil {
			return err
		}
		rule.UpdatedAt = now
		return s.ruleRepo.Save(tx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loyalty rule created",
		zap.String("rule_id", rule.ID),
		zap.String("customer_id", rule.CustomerID),
		zap.String("product_id", rule.ProductID),
		zap.String("multiplier", rule.PointsMultiplier.String()),
	)
	return rule, nil
}

// UpdateRule replaces a rule's editable fields
func (s *loyaltyService) UpdateRule(ctx context.Context, caller domain.Identity, id string, in LoyaltyRuleInput) (*domain.LoyaltyRule, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageLoyalty); err != nil {
		return nil, err
	}

	var rule *domain.LoyaltyRule
	err := update(ctx, s.store, func(tx store.Tx) error {
		var err error
		rule, err = s.ruleRepo.FindByID(tx, id)
		if err != nil {
			return err
		}
		if err := s.apply(tx, rule, in); err != nil {
			return err
		}
		rule.UpdatedAt = s.now()
		return s.ruleRepo.Save(tx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loyalty rule updated", zap.String("rule_id", rule.ID))
	return rule, nil
}

// ToggleRule flips a rule between active and inactive
func (s *loyaltyService) ToggleRule(ctx context.Context, caller domain.Identity, id string) (*domain.LoyaltyRule, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageLoyalty); err != nil {
		return nil, err
	}

	var rule *domain.LoyaltyRule
	err := update(ctx, s.store, func(tx store.Tx) error {
		var err error
		rule, err = s.ruleRepo.FindByID(tx, id)
		if err != nil {
			return err
		}
		rule.IsActive = !rule.IsActive
		rule.UpdatedAt = s.now()
		return s.ruleRepo.Save(tx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loyalty rule toggled", zap.String("rule_id", rule.ID), zap.Bool("active", rule.IsActive))
	return rule, nil
}

// DeleteRule removes a rule
func (s *loyaltyService) DeleteRule(ctx context.Context, caller domain.Identity, id string) error {
	if err := s.authorizer.Authorize(caller, CapabilityManageLoyalty); err != nil {
		return err
	}

	if err := update(ctx, s.store, func(tx store.Tx) error {
		return s.ruleRepo.Delete(tx, id)
	}); err != nil {
		return err
	}

	s.logger.Info("Loyalty rule deleted", zap.String("rule_id", id))
	return nil
}

// ListRules returns the whole rule book
func (s *loyaltyService) ListRules(ctx context.Context, caller domain.Identity) ([]domain.LoyaltyRule, error) {
	if err := s.authorizer.Authorize(caller, CapabilityManageLoyalty); err != nil {
		return nil, err
	}

	var rules []domain.LoyaltyRule
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		rules, err = s.ruleRepo.FindAll(tx)
		return err
	})
	return rules, err
}

// RulesFor returns every rule naming a customer, active or not; the resolver
// decides which apply at checkout time
func (s *loyaltyService) RulesFor(ctx context.Context, customerID string) ([]domain.LoyaltyRule, error) {
	var rules []domain.LoyaltyRule
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		rules, err = s.ruleRepo.FindByCustomer(tx, customerID)
		return err
	})
	return rules, err
}

// Summary replays a customer's transactions into a balance and tier.
// Customers may read their own summary; admins may read anyone's.
func (s *loyaltyService) Summary(ctx context.Context, caller domain.Identity, customerID string) (*LoyaltySummary, error) {
	if caller.ID != customerID {
		if err := s.authorizer.Authorize(caller, CapabilityManageCustomers); err != nil {
			return nil, err
		}
	}

	var txns []domain.Transaction
	err := view(ctx, s.store, func(tx store.Tx) error {
		var err error
		txns, err = s.txnRepo.FindByCustomer(tx, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	summary := &LoyaltySummary{
		CustomerID:   customerID,
		TotalSpent:   decimal.Zero,
		Transactions: txns,
	}
	for _, txn := range txns {
		summary.Points += txn.PointsEarned
		summary.TotalSpent = summary.TotalSpent.Add(txn.Amount)
	}
	if summary.Points < 0 {
		summary.Points = 0
	}
	summary.Tier = domain.TierFor(summary.Points)
	if remaining, ok := domain.PointsToNextTier(summary.Points); ok {
		summary.PointsToNextTier = &remaining
	}
	return summary, nil
}

// apply validates in against the customer book and catalog and copies it onto rule
func (s *loyaltyService) apply(tx store.Tx, rule *domain.LoyaltyRule, in LoyaltyRuleInput) error {
	rule.CustomerID = in.CustomerID
	rule.ProductID = in.ProductID
	rule.PointsMultiplier = in.PointsMultiplier
	rule.StartDate = in.StartDate
	rule.EndDate = in.EndDate
	rule.IsActive = in.IsActive
	if err := rule.Validate(); err != nil {
		return err
	}

	customer, err := s.customerRepo.FindByID(tx, in.CustomerID)
	if err != nil {
		return err
	}
	product, err := s.products.FindByID(in.ProductID)
	if err != nil {
		return err
	}

	rule.CustomerName = customer.Name
	rule.ProductName = product.Name
	return nil
}
