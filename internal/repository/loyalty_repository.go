package repository

import (
	"cmp"
	"slices"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// LoyaltyRuleRepository defines the interface for the loyalty rule book
type LoyaltyRuleRepository interface {
	Save(tx store.Tx, rule *domain.LoyaltyRule) error
	FindByID(tx store.Tx, id string) (*domain.LoyaltyRule, error)
	FindAll(tx store.Tx) ([]domain.LoyaltyRule, error)
	FindByCustomer(tx store.Tx, customerID string) ([]domain.LoyaltyRule, error)
	Delete(tx store.Tx, id string) error
}

// TransactionRepository defines the interface for the append-only points ledger
type TransactionRepository interface {
	Append(tx store.Tx, txn *domain.Transaction) error
	FindAll(tx store.Tx) ([]domain.Transaction, error)
	FindByCustomer(tx store.Tx, customerID string) ([]domain.Transaction, error)
}

type loyaltyRuleRepository struct{}

// NewLoyaltyRuleRepository creates a new instance of LoyaltyRuleRepository
func NewLoyaltyRuleRepository() LoyaltyRuleRepository {
	return &loyaltyRuleRepository{}
}

// Save inserts or replaces a rule by id
func (r *loyaltyRuleRepository) Save(tx store.Tx, rule *domain.LoyaltyRule) error {
	rules, err := loadMap[domain.LoyaltyRule](tx, LoyaltyRulesKey)
	if err != nil {
		return err
	}
	rules[rule.ID] = *rule
	return save(tx, LoyaltyRulesKey, rules)
}

// FindByID retrieves a rule
func (r *loyaltyRuleRepository) FindByID(tx store.Tx, id string) (*domain.LoyaltyRule, error) {
	rules, err := loadMap[domain.LoyaltyRule](tx, LoyaltyRulesKey)
	if err != nil {
		return nil, err
	}
	rule, ok := rules[id]
	if !ok {
		return nil, domain.FieldError(domain.ErrLoyaltyRuleNotFound, "rule_id", id)
	}
	return &rule, nil
}

// FindAll returns every rule, newest first
func (r *loyaltyRuleRepository) FindAll(tx store.Tx) ([]domain.LoyaltyRule, error) {
	rules, err := loadMap[domain.LoyaltyRule](tx, LoyaltyRulesKey)
	if err != nil {
		return nil, err
	}
	list := make([]domain.LoyaltyRule, 0, len(rules))
	for _, rule := range rules {
		list = append(list, rule)
	}
	slices.SortFunc(list, func(a, b domain.LoyaltyRule) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return list, nil
}

// FindByCustomer returns the rules naming a customer
func (r *loyaltyRuleRepository) FindByCustomer(tx store.Tx, customerID string) ([]domain.LoyaltyRule, error) {
	all, err := r.FindAll(tx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(rule domain.LoyaltyRule) bool {
		return rule.CustomerID != customerID
	}), nil
}

// Delete removes a rule
func (r *loyaltyRuleRepository) Delete(tx store.Tx, id string) error {
	rules, err := loadMap[domain.LoyaltyRule](tx, LoyaltyRulesKey)
	if err != nil {
		return err
	}
	if _, ok := rules[id]; !ok {
		return domain.FieldError(domain.ErrLoyaltyRuleNotFound, "rule_id", id)
	}
	delete(rules, id)
	return save(tx, LoyaltyRulesKey, rules)
}

type transactionRepository struct{}

// NewTransactionRepository creates a new instance of TransactionRepository
func NewTransactionRepository() TransactionRepository {
	return &transactionRepository{}
}

// Append adds an entry to the end of the ledger
func (r *transactionRepository) Append(tx store.Tx, txn *domain.Transaction) error {
	txns, err := loadList[domain.Transaction](tx, TransactionsKey)
	if err != nil {
		return err
	}
	txns = append(txns, *txn)
	return save(tx, TransactionsKey, txns)
}

// FindAll returns the whole ledger in append order
func (r *transactionRepository) FindAll(tx store.Tx) ([]domain.Transaction, error) {
	return loadList[domain.Transaction](tx, TransactionsKey)
}

// FindByCustomer returns a customer's entries in append order
func (r *transactionRepository) FindByCustomer(tx store.Tx, customerID string) ([]domain.Transaction, error) {
	txns, err := loadList[domain.Transaction](tx, TransactionsKey)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(txns, func(t domain.Transaction) bool {
		return t.CustomerID != customerID
	}), nil
}
