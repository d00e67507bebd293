package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderDeleteCanceled deferred removal of a canceled order
	TaskOrderDeleteCanceled = constants.TaskOrderDeleteCanceled
)

// OrderDeleteCanceledPayload payload for the deferred order removal task
type OrderDeleteCanceledPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderDeleteCanceledTask creates the deferred order removal task
func NewOrderDeleteCanceledTask(payload OrderDeleteCanceledPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderDeleteCanceled, body), nil
}
