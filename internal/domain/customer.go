package domain

import "time"

// Role gates administrative operations
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Identity is the authenticated caller, read-only to the core
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the administrative role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Customer is a registered storefront account
type Customer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email" validate:"required,email"`
	Name         string    `json:"name" validate:"notblank"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"password_hash"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the caller identity of this account
func (c Customer) Identity() Identity {
	return Identity{ID: c.ID, Role: c.Role}
}

// Validate checks the account fields
func (c Customer) Validate() error {
	return validateStruct(ErrInvalidCustomer, c)
}

// Address is a full shipping address; every field is required
type Address struct {
	FullName string `json:"full_name" validate:"notblank"`
	Street   string `json:"street" validate:"notblank"`
	City     string `json:"city" validate:"notblank"`
	State    string `json:"state" validate:"notblank"`
	ZipCode  string `json:"zip_code" validate:"notblank"`
	Country  string `json:"country" validate:"notblank"`
	Phone    string `json:"phone" validate:"notblank"`
}

// Validate reports every empty field as a violation of ErrIncompleteAddress
func (a Address) Validate() error {
	return validateStruct(ErrIncompleteAddress, a)
}

// PaymentMethod is a declared payment method; no gateway is contacted
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentCOD    PaymentMethod = "cod"
	PaymentUPI    PaymentMethod = "upi"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentPayPal, PaymentCOD, PaymentUPI:
		return true
	default:
		return false
	}
}
