package domain

import (
	"errors"
	"strings"
)

// ErrorKind classifies a failure for the caller
type ErrorKind string

const (
	// KindValidation is malformed or missing input, reported per field
	KindValidation ErrorKind = "validation"
	// KindBusinessRule is a well-formed request the current state does not allow
	KindBusinessRule ErrorKind = "business_rule"
	// KindNotFound is a reference to a record that does not exist
	KindNotFound ErrorKind = "not_found"
	// KindForbidden is a capability the caller's role does not grant
	KindForbidden ErrorKind = "forbidden"
	// KindStorage is a persistence failure; the caller may retry
	KindStorage ErrorKind = "storage"
)

// Violation is a single field-level validation failure
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the reported outcome of a rejected core operation
type Error struct {
	Kind       ErrorKind
	Code       string
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i, v := range e.Violations {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(v.Field)
		if v.Message != "" {
			b.WriteString(": ")
			b.WriteString(v.Message)
		}
		if i == len(e.Violations)-1 {
			b.WriteString(")")
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so detailed instances still match their sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Retryable reports whether repeating the same operation may succeed
func (e *Error) Retryable() bool {
	return e.Kind == KindStorage
}

func (e *Error) with(message string, violations ...Violation) *Error {
	clone := *e
	if message != "" {
		clone.Message = message
	}
	clone.Violations = append([]Violation(nil), violations...)
	return &clone
}

var (
	ErrEmptyCart          = &Error{Kind: KindValidation, Code: "EmptyCart", Message: "cart is empty"}
	ErrIncompleteAddress  = &Error{Kind: KindValidation, Code: "IncompleteAddress", Message: "shipping address is incomplete"}
	ErrInvalidQuantity    = &Error{Kind: KindValidation, Code: "InvalidQuantity", Message: "quantity must be positive"}
	ErrInvalidCriteria    = &Error{Kind: KindValidation, Code: "InvalidCriteria", Message: "invalid filter criteria"}
	ErrInvalidProduct     = &Error{Kind: KindValidation, Code: "InvalidProduct", Message: "invalid product"}
	ErrInvalidVoucher     = &Error{Kind: KindValidation, Code: "InvalidVoucher", Message: "invalid voucher"}
	ErrInvalidLoyaltyRule = &Error{Kind: KindValidation, Code: "InvalidLoyaltyRule", Message: "invalid loyalty rule"}
	ErrInvalidPayment     = &Error{Kind: KindValidation, Code: "InvalidPaymentMethod", Message: "unsupported payment method"}
	ErrInvalidStatus      = &Error{Kind: KindValidation, Code: "InvalidStatus", Message: "unknown order status"}
	ErrInvalidCustomer    = &Error{Kind: KindValidation, Code: "InvalidCustomer", Message: "invalid customer details"}
	ErrInvalidRequest     = &Error{Kind: KindValidation, Code: "InvalidRequest", Message: "invalid request body"}

	ErrOutOfStock         = &Error{Kind: KindBusinessRule, Code: "OutOfStock", Message: "product is out of stock"}
	ErrInvalidTransition  = &Error{Kind: KindBusinessRule, Code: "InvalidTransition", Message: "order status transition not allowed"}
	ErrVoucherAlreadyUsed = &Error{Kind: KindBusinessRule, Code: "VoucherAlreadyUsed", Message: "voucher has already been used"}
	ErrVoucherNotEligible = &Error{Kind: KindBusinessRule, Code: "VoucherNotEligible", Message: "voucher cannot be applied to this order"}
	ErrDuplicateVoucher   = &Error{Kind: KindBusinessRule, Code: "DuplicateVoucher", Message: "voucher code already exists"}
	ErrCustomerExists     = &Error{Kind: KindBusinessRule, Code: "CustomerExists", Message: "customer with this email already exists"}
	ErrInvalidCredentials = &Error{Kind: KindBusinessRule, Code: "InvalidCredentials", Message: "invalid email or password"}

	ErrUnknownProduct      = &Error{Kind: KindNotFound, Code: "UnknownProduct", Message: "product not found in catalog"}
	ErrOrderNotFound       = &Error{Kind: KindNotFound, Code: "OrderNotFound", Message: "order not found"}
	ErrVoucherNotFound     = &Error{Kind: KindNotFound, Code: "VoucherNotFound", Message: "voucher not found"}
	ErrLoyaltyRuleNotFound = &Error{Kind: KindNotFound, Code: "LoyaltyRuleNotFound", Message: "loyalty rule not found"}
	ErrCustomerNotFound    = &Error{Kind: KindNotFound, Code: "CustomerNotFound", Message: "customer not found"}

	ErrForbidden = &Error{Kind: KindForbidden, Code: "Forbidden", Message: "insufficient permissions"}

	ErrStorageFailure = &Error{Kind: KindStorage, Code: "StorageFailure", Message: "storage unavailable, please retry"}
)

// FieldError returns a copy of sentinel carrying one field violation
func FieldError(sentinel *Error, field, message string) *Error {
	return sentinel.with("", Violation{Field: field, Message: message})
}

// WithMessage returns a copy of sentinel with a more specific message
func WithMessage(sentinel *Error, message string) *Error {
	return sentinel.with(message)
}

// StorageError reports a persistence failure. Domain errors raised inside a
// storage transaction pass through unchanged.
func StorageError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	storageErr := *ErrStorageFailure
	storageErr.Err = err
	return &storageErr
}

// KindOf returns the kind of a domain error, or "" for anything else
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}
