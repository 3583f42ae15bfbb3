// Package cart holds the session-scoped mapping of products to quantities.
package cart

import (
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps a single cart line
const MaxQuantity = 999

// ProductLookup resolves product ids against the catalog
type ProductLookup interface {
	FindByID(id string) (domain.Product, error)
}

// Ledger maps product ids to cart entries. At most one entry exists per
// product and every entry has a positive quantity.
type Ledger struct {
	catalog ProductLookup
	entries map[string]*domain.CartEntry
	order   []string
}

// NewLedger creates an empty ledger bound to a catalog
func NewLedger(catalog ProductLookup) *Ledger {
	return &Ledger{
		catalog: catalog,
		entries: make(map[string]*domain.CartEntry),
	}
}

// Add increments an existing entry or inserts a new one
func (l *Ledger) Add(productID string, quantity int) (domain.CartEntry, error) {
	if quantity <= 0 {
		return domain.CartEntry{}, domain.FieldError(domain.ErrInvalidQuantity, "quantity", "must be at least 1")
	}
	if quantity > MaxQuantity {
		return domain.CartEntry{}, quantityTooLarge()
	}

	product, err := l.catalog.FindByID(productID)
	if err != nil {
		return domain.CartEntry{}, err
	}
	if !product.InStock() {
		return domain.CartEntry{}, domain.WithMessage(domain.ErrOutOfStock, product.Name+" is out of stock")
	}

	if entry, ok := l.entries[productID]; ok {
		// checked as a difference so the sum cannot overflow
		if quantity > MaxQuantity-entry.Quantity {
			return domain.CartEntry{}, quantityTooLarge()
		}
		entry.Quantity += quantity
		return *entry, nil
	}

	entry := &domain.CartEntry{Product: product, Quantity: quantity}
	l.entries[productID] = entry
	l.order = append(l.order, productID)
	return *entry, nil
}

// SetQuantity replaces an entry's quantity; zero or less removes it
func (l *Ledger) SetQuantity(productID string, quantity int) error {
	if quantity <= 0 {
		l.Remove(productID)
		return nil
	}
	if quantity > MaxQuantity {
		return quantityTooLarge()
	}

	if entry, ok := l.entries[productID]; ok {
		entry.Quantity = quantity
		return nil
	}

	product, err := l.catalog.FindByID(productID)
	if err != nil {
		return err
	}
	if !product.InStock() {
		return domain.WithMessage(domain.ErrOutOfStock, product.Name+" is out of stock")
	}

	l.entries[productID] = &domain.CartEntry{Product: product, Quantity: quantity}
	l.order = append(l.order, productID)
	return nil
}

func quantityTooLarge() error {
	return domain.FieldError(domain.ErrInvalidQuantity, "quantity", fmt.Sprintf("must not exceed %d per product", MaxQuantity))
}

// Remove deletes an entry; absent products are ignored
func (l *Ledger) Remove(productID string) {
	if _, ok := l.entries[productID]; !ok {
		return
	}
	delete(l.entries, productID)
	for i, id := range l.order {
		if id == productID {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Clear empties the ledger
func (l *Ledger) Clear() {
	l.entries = make(map[string]*domain.CartEntry)
	l.order = nil
}

// Entries returns copies of the entries in insertion order
func (l *Ledger) Entries() []domain.CartEntry {
	entries := make([]domain.CartEntry, 0, len(l.order))
	for _, id := range l.order {
		entries = append(entries, *l.entries[id])
	}
	return entries
}

// Len is the number of distinct products
func (l *Ledger) Len() int {
	return len(l.entries)
}

// IsEmpty reports whether the ledger has no entries
func (l *Ledger) IsEmpty() bool {
	return len(l.entries) == 0
}

// Subtotal sums price times quantity, computed fresh on every call
func (l *Ledger) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, entry := range l.entries {
		subtotal = subtotal.Add(entry.LineTotal())
	}
	return subtotal
}

// ItemCount sums quantities
func (l *Ledger) ItemCount() int {
	count := 0
	for _, entry := range l.entries {
		count += entry.Quantity
	}
	return count
}

// Snapshot captures the cart at an instant. Later ledger changes do not affect it.
func (l *Ledger) Snapshot(at time.Time) Snapshot {
	return Snapshot{Items: l.Entries(), CapturedAt: at}
}

// Snapshot is an immutable copy of the cart taken at checkout
type Snapshot struct {
	Items      []domain.CartEntry `json:"items"`
	CapturedAt time.Time          `json:"captured_at"`
}

// IsEmpty reports whether the snapshot holds no entries
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Subtotal sums price times quantity over the snapshot
func (s Snapshot) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// ProductIDs lists the products in the snapshot
func (s Snapshot) ProductIDs() []string {
	ids := make([]string, len(s.Items))
	for i, item := range s.Items {
		ids[i] = item.Product.ID
	}
	return ids
}
