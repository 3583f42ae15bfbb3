package repository

import (
	"slices"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// CustomerRepository defines the interface for customer account data access
type CustomerRepository interface {
	Create(tx store.Tx, customer *domain.Customer) error
	FindByEmail(tx store.Tx, email string) (*domain.Customer, error)
	FindByID(tx store.Tx, id string) (*domain.Customer, error)
	FindAll(tx store.Tx) ([]domain.Customer, error)
	Update(tx store.Tx, customer *domain.Customer) error
}

type customerRepository struct{}

// NewCustomerRepository creates a new instance of CustomerRepository
func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

// Create inserts a new customer; emails are unique ignoring case
func (r *customerRepository) Create(tx store.Tx, customer *domain.Customer) error {
	customers, err := loadMap[domain.Customer](tx, CustomersKey)
	if err != nil {
		return err
	}
	for _, existing := range customers {
		if strings.EqualFold(existing.Email, customer.Email) {
			return domain.FieldError(domain.ErrCustomerExists, "email", customer.Email)
		}
	}
	customers[customer.ID] = *customer
	return save(tx, CustomersKey, customers)
}

// FindByEmail retrieves a customer by email, ignoring case
func (r *customerRepository) FindByEmail(tx store.Tx, email string) (*domain.Customer, error) {
	customers, err := loadMap[domain.Customer](tx, CustomersKey)
	if err != nil {
		return nil, err
	}
	for _, c := range customers {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, domain.FieldError(domain.ErrCustomerNotFound, "email", email)
}

// FindByID retrieves a customer by id
func (r *customerRepository) FindByID(tx store.Tx, id string) (*domain.Customer, error) {
	customers, err := loadMap[domain.Customer](tx, CustomersKey)
	if err != nil {
		return nil, err
	}
	c, ok := customers[id]
	if !ok {
		return nil, domain.FieldError(domain.ErrCustomerNotFound, "customer_id", id)
	}
	return &c, nil
}

// FindAll returns every customer ordered by name
func (r *customerRepository) FindAll(tx store.Tx) ([]domain.Customer, error) {
	customers, err := loadMap[domain.Customer](tx, CustomersKey)
	if err != nil {
		return nil, err
	}
	list := make([]domain.Customer, 0, len(customers))
	for _, c := range customers {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b domain.Customer) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list, nil
}

// Update replaces an existing customer
func (r *customerRepository) Update(tx store.Tx, customer *domain.Customer) error {
	customers, err := loadMap[domain.Customer](tx, CustomersKey)
	if err != nil {
		return err
	}
	if _, ok := customers[customer.ID]; !ok {
		return domain.FieldError(domain.ErrCustomerNotFound, "customer_id", customer.ID)
	}
	customers[customer.ID] = *customer
	return save(tx, CustomersKey, customers)
}
