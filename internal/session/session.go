// Package session binds a caller identity to its cart.
package session

import (
	"sync"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

// Session is an authenticated caller and the cart it owns. A cart belongs to
// exactly one session and never outlives it.
type Session struct {
	Identity domain.Identity
	Cart     *cart.Ledger
}

// Registry hands out one session per identity
type Registry interface {
	Get(identity domain.Identity) *Session
	End(identityID string)
}

type registry struct {
	mu       sync.Mutex
	catalog  cart.ProductLookup
	sessions map[string]*Session
}

// NewRegistry creates a registry whose carts resolve against catalog
func NewRegistry(catalog cart.ProductLookup) Registry {
	return &registry{
		catalog:  catalog,
		sessions: make(map[string]*Session),
	}
}

// Get returns the caller's session, starting one with an empty cart if needed.
// A changed role is picked up without discarding the cart.
func (r *registry) Get(identity domain.Identity) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[identity.ID]; ok {
		s.Identity = identity
		return s
	}

	s := &Session{Identity: identity, Cart: cart.NewLedger(r.catalog)}
	r.sessions[identity.ID] = s
	return s
}

// End discards the session and its cart
func (r *registry) End(identityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, identityID)
}
