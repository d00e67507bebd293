package constants

// Order status constants
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCanceled   = "canceled"
)

// Payment status constants
const (
	PaymentStatusUnpaid         = "unpaid"
	PaymentStatusPaid           = "paid"
	PaymentStatusFailed         = "failed"
	PaymentStatusRequiresAction = "requires_action"
	PaymentStatusProcessing     = "processing"
)

// Payment method constants
const (
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodCard           = "card"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Cart key prefixes. The full key is derived from the request identity:
// cart:user:<id> for authenticated sessions, cart:guest:<session_id> otherwise.
const (
	CartKeyUserPrefix  = "cart:user:"
	CartKeyGuestPrefix = "cart:guest:"
)

// Queue constants
const (
	QueueDefault            = "default"
	TaskOrderDeleteCanceled = "order:delete_canceled"
)

// Event name constants
const (
	EventCartUpdated        = "cart.updated"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Cache default constants
const (
	RedisPrefixDefault = "sf"
)

// Currency default
const (
	SiteCurrencyDefault = "USD"
)
