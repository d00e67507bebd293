package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Normalized authorization statuses. Concrete processors map their own
// vocabulary onto these before anything downstream sees them.
const (
	AuthorizationStatusPending        = "pending"
	AuthorizationStatusProcessing     = "processing"
	AuthorizationStatusRequiresAction = "requires_action"
	AuthorizationStatusSucceeded      = "succeeded"
	AuthorizationStatusFailed         = "failed"
	AuthorizationStatusCanceled       = "canceled"
)

// Authorization a card authorization held at the processor
type Authorization struct {
	ID           string
	ClientSecret string
	Status       string
	Currency     string
	AmountMinor  int64
}

// CreateAuthorizationInput parameters for opening an authorization
type CreateAuthorizationInput struct {
	AmountMinor   int64
	Currency      string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

// Gateway abstract card processor contract. Amounts cross this boundary
// only as integer minor units.
type Gateway interface {
	CreateAuthorization(ctx context.Context, input CreateAuthorizationInput) (*Authorization, error)
	RetrieveAuthorization(ctx context.Context, id string) (*Authorization, error)
	ConfirmAuthorization(ctx context.Context, id string) (*Authorization, error)
	CancelAuthorization(ctx context.Context, id string) (*Authorization, error)
}

// ToMinorUnits converts a major-unit decimal amount into integer minor
// units, rounding halves away from zero: 19.99 becomes 1999, 10.005
// becomes 1001. Values already at 2 decimals round-trip exactly.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ToDecimal converts integer minor units back into a major-unit decimal:
// 1999 becomes 19.99.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}
