package repository

import (
	"storefront/internal/domain"
	"storefront/internal/store"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(tx store.Tx, order *domain.Order) error
	FindByID(tx store.Tx, id string) (*domain.Order, error)
	FindAll(tx store.Tx) ([]domain.Order, error)
	FindByCustomer(tx store.Tx, customerID string) ([]domain.Order, error)
	Update(tx store.Tx, order *domain.Order) error
}

type orderRepository struct{}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository() OrderRepository {
	return &orderRepository{}
}

// Create appends an order to the orders collection
func (r *orderRepository) Create(tx store.Tx, order *domain.Order) error {
	orders, err := loadList[domain.Order](tx, OrdersKey)
	if err != nil {
		return err
	}
	orders = append(orders, *order)
	return save(tx, OrdersKey, orders)
}

// FindByID retrieves an order by id
func (r *orderRepository) FindByID(tx store.Tx, id string) (*domain.Order, error) {
	orders, err := loadList[domain.Order](tx, OrdersKey)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, domain.FieldError(domain.ErrOrderNotFound, "order_id", id)
}

// FindAll returns every order in placement order
func (r *orderRepository) FindAll(tx store.Tx) ([]domain.Order, error) {
	return loadList[domain.Order](tx, OrdersKey)
}

// FindByCustomer returns a customer's orders in placement order
func (r *orderRepository) FindByCustomer(tx store.Tx, customerID string) ([]domain.Order, error) {
	orders, err := loadList[domain.Order](tx, OrdersKey)
	if err != nil {
		return nil, err
	}
	owned := make([]domain.Order, 0)
	for _, o := range orders {
		if o.UserID == customerID {
			owned = append(owned, o)
		}
	}
	return owned, nil
}

// Update replaces an existing order in place
func (r *orderRepository) Update(tx store.Tx, order *domain.Order) error {
	orders, err := loadList[domain.Order](tx, OrdersKey)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID == order.ID {
			orders[i] = *order
			return save(tx, OrdersKey, orders)
		}
	}
	return domain.FieldError(domain.ErrOrderNotFound, "order_id", order.ID)
}
