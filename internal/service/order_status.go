package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
)

// orderStatusTransitions forward edges of the order state machine.
// delivered and canceled are terminal.
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusProcessing, constants.OrderStatusCanceled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCanceled},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered},
	constants.OrderStatusDelivered:  {},
	constants.OrderStatusCanceled:   {},
}

// CanTransitionOrderStatus reports whether from -> to is a legal edge
func CanTransitionOrderStatus(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return false
	}
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// buildStatusUpdates returns the companion column writes that ride along
// with a status change, so the whole transition lands in one UPDATE.
// delivered forces payment_status=paid in the same write; paid_at is only
// stamped when the order has no payment timestamp yet.
func buildStatusUpdates(to string, now time.Time, paidAt *time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch to {
	case constants.OrderStatusDelivered:
		updates["payment_status"] = constants.PaymentStatusPaid
		if paidAt == nil {
			updates["paid_at"] = now
		}
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
	}
	return updates
}
