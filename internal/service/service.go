package service

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// Capability names an administrative operation
type Capability string

const (
	CapabilityViewAllOrders   Capability = "orders:view_all"
	CapabilityManageOrders    Capability = "orders:manage"
	CapabilityManageVouchers  Capability = "vouchers:manage"
	CapabilityManageLoyalty   Capability = "loyalty:manage"
	CapabilityManageCustomers Capability = "customers:manage"
)

// Authorizer is consulted before any administrative operation returns results
type Authorizer interface {
	Authorize(identity domain.Identity, capability Capability) error
}

type roleAuthorizer struct{}

// NewRoleAuthorizer grants every capability to the admin role and none to customers
func NewRoleAuthorizer() Authorizer {
	return roleAuthorizer{}
}

func (roleAuthorizer) Authorize(identity domain.Identity, capability Capability) error {
	if identity.IsAdmin() {
		return nil
	}
	return domain.WithMessage(domain.ErrForbidden, "missing capability "+string(capability))
}

// update runs fn in a store transaction, reporting backend failures as retryable storage errors
func update(ctx context.Context, st store.Store, fn func(store.Tx) error) error {
	return domain.StorageError(st.Update(ctx, fn))
}

// view runs fn against a read-only store view
func view(ctx context.Context, st store.Store, fn func(store.Tx) error) error {
	return domain.StorageError(st.View(ctx, fn))
}
