package worker

import (
	"context"
	"testing"

	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleOrderDeleteCanceledBadPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskOrderDeleteCanceled, []byte("not-json"))

	if err := consumer.handleOrderDeleteCanceled(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestHandleOrderDeleteCanceledZeroOrderID(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewOrderDeleteCanceledTask(queue.OrderDeleteCanceledPayload{OrderID: 0})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}

	if err := consumer.handleOrderDeleteCanceled(context.Background(), task); err != nil {
		t.Fatalf("expected zero order id to be skipped, got: %v", err)
	}
}

func TestHandleOrderDeleteCanceledNilService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task, err := queue.NewOrderDeleteCanceledTask(queue.OrderDeleteCanceledPayload{OrderID: 42})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}

	if err := consumer.handleOrderDeleteCanceled(context.Background(), task); err != nil {
		t.Fatalf("expected missing order service to be skipped, got: %v", err)
	}
}
