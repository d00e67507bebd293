package service

import "errors"

// Shared service-level sentinels. Handlers translate these into response
// codes through their error mapping tables.
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrPasswordTooWeak    = errors.New("password too weak")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserDisabled       = errors.New("user disabled")

	// Cart engine. ErrCartLockTimeout is transient: the caller may retry.
	ErrCartLockTimeout      = errors.New("cart lock timeout")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrCartStoreUnavailable = errors.New("cart store unavailable")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrProductUnavailable   = errors.New("product unavailable")

	// Order pipeline and lifecycle.
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotCancelable      = errors.New("order not cancelable")
	ErrPaymentNotRequired      = errors.New("order has no payment authorization")
	ErrPaymentGateway          = errors.New("payment gateway error")

	// Catalog.
	ErrSlugTaken        = errors.New("slug already in use")
	ErrCategoryNotEmpty = errors.New("category still has products")
)
