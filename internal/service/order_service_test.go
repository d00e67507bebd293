package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	fail    bool
	status  string
	created []payment.CreateAuthorizationInput
}

func (g *fakeGateway) CreateAuthorization(_ context.Context, input payment.CreateAuthorizationInput) (*payment.Authorization, error) {
	if g.fail {
		return nil, errors.New("processor unavailable")
	}
	g.created = append(g.created, input)
	return &payment.Authorization{
		ID:           fmt.Sprintf("pi_test_%d", len(g.created)),
		ClientSecret: "cs_test_secret",
		Status:       payment.AuthorizationStatusPending,
		Currency:     input.Currency,
		AmountMinor:  input.AmountMinor,
	}, nil
}

func (g *fakeGateway) RetrieveAuthorization(_ context.Context, id string) (*payment.Authorization, error) {
	if g.fail {
		return nil, errors.New("processor unavailable")
	}
	status := g.status
	if status == "" {
		status = payment.AuthorizationStatusPending
	}
	return &payment.Authorization{ID: id, Status: status}, nil
}

func (g *fakeGateway) ConfirmAuthorization(ctx context.Context, id string) (*payment.Authorization, error) {
	return g.RetrieveAuthorization(ctx, id)
}

func (g *fakeGateway) CancelAuthorization(_ context.Context, id string) (*payment.Authorization, error) {
	return &payment.Authorization{ID: id, Status: payment.AuthorizationStatusCanceled}, nil
}

func openOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.User{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

type orderTestEnv struct {
	db      *gorm.DB
	store   *fakeCartStore
	gateway *fakeGateway
	cart    *CartService
	orders  *OrderService
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()
	db := openOrderTestDB(t)
	store := newFakeCartStore()
	gateway := &fakeGateway{}
	cart := NewCartService(store, newFakeCartLocker(), repository.NewProductRepository(db), nil, 0, 0)
	orders := NewOrderService(repository.NewOrderRepository(db), cart, gateway, nil, nil, "usd", time.Hour)
	return &orderTestEnv{db: db, store: store, gateway: gateway, cart: cart, orders: orders}
}

func (e *orderTestEnv) seedProduct(t *testing.T, slug, price string) models.Product {
	t.Helper()
	return seedCartProduct(t, e.db, slug, price, true)
}

func (e *orderTestEnv) fillCart(t *testing.T, userID uint, product models.Product, qty int) {
	t.Helper()
	if _, err := e.cart.AddItem(context.Background(), UserCartKey(userID), product.ID, qty); err != nil {
		t.Fatalf("fill cart failed: %v", err)
	}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	if err := db.Model(model).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newOrderTestEnv(t)

	_, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: 1})
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got: %v", err)
	}
	if n := countRows(t, env.db, &models.Order{}); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
}

func TestCreateOrderFreezesSnapshotAndClearsCart(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "widget", "19.99")
	env.fillCart(t, 1, product, 2)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{
		UserID:        1,
		PaymentMethod: constants.PaymentMethodCashOnDelivery,
		ShippingName:  "Jamie",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	want, _ := decimal.NewFromString("39.98")
	if !order.TotalAmount.Decimal.Equal(want) {
		t.Fatalf("expected total 39.98, got %s", order.TotalAmount.Decimal.String())
	}
	if order.Status != constants.OrderStatusPending || order.PaymentStatus != constants.PaymentStatusUnpaid {
		t.Fatalf("unexpected initial state: %s/%s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductName != product.Name || item.Quantity != 2 {
		t.Fatalf("unexpected item snapshot: %+v", item)
	}
	if !item.LineTotal.Decimal.Equal(want) {
		t.Fatalf("expected line total 39.98, got %s", item.LineTotal.Decimal.String())
	}

	// item totals must add up to the frozen order total
	sum := decimal.Zero
	for _, it := range order.Items {
		sum = sum.Add(it.LineTotal.Decimal)
	}
	if !sum.Equal(order.TotalAmount.Decimal) {
		t.Fatalf("item totals %s do not match order total %s", sum, order.TotalAmount.Decimal)
	}

	if exists, _ := env.store.Exists(context.Background(), string(UserCartKey(1))); exists {
		t.Fatalf("expected cart cleared after checkout")
	}
}

func TestCreateOrderCardAttachesAuthorization(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "premium", "10.00")
	env.fillCart(t, 2, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{
		UserID:        2,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.AuthorizationID == "" || order.ClientSecret == "" {
		t.Fatalf("expected authorization attached, got %+v", order)
	}
	if len(env.gateway.created) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(env.gateway.created))
	}
	if env.gateway.created[0].AmountMinor != 1000 {
		t.Fatalf("expected 1000 minor units, got %d", env.gateway.created[0].AmountMinor)
	}
}

func TestCreateOrderGatewayFailureRollsBack(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "flaky", "7.00")
	env.fillCart(t, 3, product, 1)
	env.gateway.fail = true

	_, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{
		UserID:        3,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if !errors.Is(err, ErrPaymentGateway) {
		t.Fatalf("expected ErrPaymentGateway, got: %v", err)
	}
	if n := countRows(t, env.db, &models.Order{}); n != 0 {
		t.Fatalf("expected rollback to leave no orders, got %d", n)
	}
	if n := countRows(t, env.db, &models.OrderItem{}); n != 0 {
		t.Fatalf("expected rollback to leave no items, got %d", n)
	}
	// the cart must survive a failed checkout
	if exists, _ := env.store.Exists(context.Background(), string(UserCartKey(3))); !exists {
		t.Fatalf("expected cart intact after failed checkout")
	}
}

func TestUpdateOrderStatusDeliveredForcesPaid(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "shippable", "3.00")
	env.fillCart(t, 4, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: 4})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	ctx := context.Background()
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusShipped, constants.OrderStatusDelivered} {
		if order, err = env.orders.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	if order.Status != constants.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", order.Status)
	}
	if order.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected delivered order to be paid, got %s", order.PaymentStatus)
	}
	if order.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}
}

func TestUpdateOrderStatusDeliveredKeepsEarlierPaidAt(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "prepaid", "8.00")
	env.fillCart(t, 6, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: 6})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// Payment settled earlier, e.g. through the processor callback.
	paidAt := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{"payment_status": constants.PaymentStatusPaid, "paid_at": paidAt}).Error; err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	ctx := context.Background()
	for _, status := range []string{constants.OrderStatusProcessing, constants.OrderStatusShipped, constants.OrderStatusDelivered} {
		if order, err = env.orders.UpdateOrderStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	if order.PaidAt == nil {
		t.Fatalf("expected paid_at preserved")
	}
	if !order.PaidAt.Equal(paidAt) {
		t.Fatalf("delivered transition rewrote paid_at: want %v got %v", paidAt, order.PaidAt)
	}
}

func TestUpdateOrderStatusRejectsIllegalTransition(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "stuck", "2.00")
	env.fillCart(t, 5, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: 5})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if _, err := env.orders.UpdateOrderStatus(context.Background(), order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got: %v", err)
	}
}

func TestCancelOrderOnlyBeforeShipping(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "cancelable", "6.00")
	env.fillCart(t, 6, product, 1)

	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{UserID: 6})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if order, err = env.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusProcessing); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if order, err = env.orders.UpdateOrderStatus(ctx, order.ID, constants.OrderStatusShipped); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	if _, err := env.orders.CancelOrder(ctx, order.ID, 6); !errors.Is(err, ErrOrderNotCancelable) {
		t.Fatalf("expected ErrOrderNotCancelable, got: %v", err)
	}
}

func TestDeleteCanceledOrderChecksStatusAtExecution(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "deletable", "4.00")
	env.fillCart(t, 7, product, 1)

	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{UserID: 7})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	// still pending: the deferred delete must leave it alone
	if err := env.orders.DeleteCanceledOrder(order.ID); err != nil {
		t.Fatalf("DeleteCanceledOrder error: %v", err)
	}
	if n := countRows(t, env.db, &models.Order{}); n != 1 {
		t.Fatalf("expected pending order to survive, got %d rows", n)
	}

	if _, err := env.orders.CancelOrder(ctx, order.ID, 7); err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if err := env.orders.DeleteCanceledOrder(order.ID); err != nil {
		t.Fatalf("DeleteCanceledOrder error: %v", err)
	}

	var n int64
	if err := env.db.Unscoped().Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected canceled order removed, got %d rows", n)
	}
	if n := countRows(t, env.db, &models.OrderItem{}); n != 0 {
		t.Fatalf("expected items removed with order, got %d rows", n)
	}

	// deleting an unknown order is a no-op
	if err := env.orders.DeleteCanceledOrder(order.ID); err != nil {
		t.Fatalf("expected idempotent delete, got: %v", err)
	}
}

func TestApplyWebhookStatusMarksPaidAndAdvances(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "webhooked", "12.88")
	env.fillCart(t, 8, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{
		UserID:        8,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if err := env.orders.ApplyWebhookStatus(order.AuthorizationID, payment.AuthorizationStatusSucceeded); err != nil {
		t.Fatalf("ApplyWebhookStatus error: %v", err)
	}

	updated, err := env.orders.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if updated.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}
	if updated.Status != constants.OrderStatusProcessing {
		t.Fatalf("expected processing after payment, got %s", updated.Status)
	}
	if updated.PaidAt == nil {
		t.Fatalf("expected paid_at set")
	}
}

func TestApplyWebhookStatusUnknownAuthorization(t *testing.T) {
	env := newOrderTestEnv(t)

	if err := env.orders.ApplyWebhookStatus("pi_missing", payment.AuthorizationStatusSucceeded); err != nil {
		t.Fatalf("expected unknown authorization to be ignored, got: %v", err)
	}
}

func TestConfirmPaymentWithoutAuthorization(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "cod", "9.00")
	env.fillCart(t, 9, product, 1)

	order, err := env.orders.CreateOrder(context.Background(), CreateOrderInput{UserID: 9})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if _, err := env.orders.ConfirmPayment(context.Background(), order.ID, 9); !errors.Is(err, ErrPaymentNotRequired) {
		t.Fatalf("expected ErrPaymentNotRequired, got: %v", err)
	}
}

func TestConfirmPaymentPolling(t *testing.T) {
	env := newOrderTestEnv(t)
	product := env.seedProduct(t, "polled", "15.00")
	env.fillCart(t, 10, product, 1)

	ctx := context.Background()
	order, err := env.orders.CreateOrder(ctx, CreateOrderInput{
		UserID:        10,
		PaymentMethod: constants.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	env.gateway.status = payment.AuthorizationStatusSucceeded
	updated, err := env.orders.ConfirmPayment(ctx, order.ID, 10)
	if err != nil {
		t.Fatalf("ConfirmPayment error: %v", err)
	}
	if updated.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", updated.PaymentStatus)
	}
}
