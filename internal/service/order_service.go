package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/events"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/payment"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService checkout pipeline and order lifecycle
type OrderService struct {
	orderRepo         repository.OrderRepository
	cartService       *CartService
	gateway           payment.Gateway
	queueClient       *queue.Client
	publisher         events.Publisher
	currency          string
	canceledDeleteTTL time.Duration
}

// NewOrderService creates the order service
func NewOrderService(orderRepo repository.OrderRepository, cartService *CartService, gateway payment.Gateway, queueClient *queue.Client, publisher events.Publisher, currency string, canceledDeleteTTL time.Duration) *OrderService {
	if strings.TrimSpace(currency) == "" {
		currency = constants.SiteCurrencyDefault
	}
	if canceledDeleteTTL <= 0 {
		canceledDeleteTTL = 30 * 24 * time.Hour
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orderRepo:         orderRepo,
		cartService:       cartService,
		gateway:           gateway,
		queueClient:       queueClient,
		publisher:         publisher,
		currency:          strings.ToLower(strings.TrimSpace(currency)),
		canceledDeleteTTL: canceledDeleteTTL,
	}
}

// CreateOrderInput checkout input
type CreateOrderInput struct {
	UserID          uint
	PaymentMethod   string
	ShippingName    string
	ShippingAddress string
	CustomerEmail   string
	ClientIP        string
}

// CreateOrder turns the user's cart into an order inside one transaction.
// The cart is snapshotted before the transaction opens; prices and names
// are frozen into order items exactly as snapshotted. For card payments
// the gateway authorization is created inside the transaction so a
// gateway failure rolls back every row. The cart is cleared only after
// commit, best-effort.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrNotFound
	}
	method := normalizePaymentMethod(input.PaymentMethod)
	if method == "" {
		return nil, fmt.Errorf("%w: unsupported payment method", ErrPaymentGateway)
	}

	cartKey := UserCartKey(input.UserID)
	snapshot, err := s.cartService.Snapshot(ctx, cartKey)
	if err != nil {
		return nil, err
	}
	if snapshot.IsEmpty() {
		return nil, ErrCartEmpty
	}

	order := &models.Order{
		OrderNo:         genOrderNo(),
		UserID:          input.UserID,
		Status:          constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusUnpaid,
		PaymentMethod:   method,
		Currency:        s.currency,
		TotalAmount:     snapshot.TotalAmount,
		ShippingName:    strings.TrimSpace(input.ShippingName),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		ClientIP:        strings.TrimSpace(input.ClientIP),
	}
	items := make([]models.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)

		if method == constants.PaymentMethodCard {
			if s.gateway == nil {
				return fmt.Errorf("%w: card processor not configured", ErrPaymentGateway)
			}
			auth, err := s.gateway.CreateAuthorization(ctx, payment.CreateAuthorizationInput{
				AmountMinor:   payment.ToMinorUnits(snapshot.TotalAmount.Decimal),
				Currency:      s.currency,
				Description:   "order " + order.OrderNo,
				CustomerEmail: strings.TrimSpace(input.CustomerEmail),
				Metadata: map[string]string{
					"order_no": order.OrderNo,
					"user_id":  fmt.Sprintf("%d", input.UserID),
				},
			})
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
			}
			order.AuthorizationID = auth.ID
			order.ClientSecret = auth.ClientSecret
			order.PaymentMeta = models.JSON{
				"authorization_status": auth.Status,
				"amount_minor":         auth.AmountMinor,
			}
		}

		return repo.Create(order, items)
	})
	if err != nil {
		return nil, err
	}

	// Cart clearing sits outside the transaction: the order already
	// exists, so a store failure must not undo it.
	if err := s.cartService.Clear(ctx, cartKey); err != nil {
		logger.Warnw("order_cart_clear_failed", "order_id", order.ID, "cart_key", string(cartKey), "error", err)
	}

	order, err = s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, constants.EventOrderCreated, map[string]interface{}{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"user_id":  order.UserID,
	})
	return order, nil
}

// GetOrder fetches an order with items
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetUserOrder fetches an order scoped to its owner
func (s *OrderService) GetUserOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders pages the caller's own orders
func (s *OrderService) ListUserOrders(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.UserID = userID
	return s.orderRepo.ListByUser(filter)
}

// ListOrders pages all orders for the admin console
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// UpdateOrderStatus advances the order along the state machine. The
// transition and its companion columns land in a single UPDATE; moving
// to canceled schedules the deferred row removal.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint, toStatus string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	to := strings.ToLower(strings.TrimSpace(toStatus))
	if !CanTransitionOrderStatus(order.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, order.Status, to)
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(orderID, to, buildStatusUpdates(to, now, order.PaidAt)); err != nil {
		return nil, err
	}

	if to == constants.OrderStatusCanceled {
		s.scheduleCanceledDelete(orderID)
	}
	s.publisher.Publish(ctx, constants.EventOrderStatusChanged, map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       to,
	})
	return s.GetOrder(orderID)
}

// CancelOrder user-initiated cancellation, legal only before shipping
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.GetUserOrder(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusPending && order.Status != constants.OrderStatusProcessing {
		return nil, ErrOrderNotCancelable
	}
	return s.UpdateOrderStatus(ctx, orderID, constants.OrderStatusCanceled)
}

// UpdatePaymentStatus admin override of the payment funnel
func (s *OrderService) UpdatePaymentStatus(orderID uint, paymentStatus string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	status := strings.ToLower(strings.TrimSpace(paymentStatus))
	if !isKnownPaymentStatus(status) {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalidStatusTransition, paymentStatus)
	}
	updates := map[string]interface{}{"updated_at": time.Now()}
	if status == constants.PaymentStatusPaid && order.PaidAt == nil {
		updates["paid_at"] = time.Now()
	}
	if err := s.orderRepo.UpdatePaymentStatus(order.ID, status, updates); err != nil {
		return nil, err
	}
	return s.GetOrder(order.ID)
}

// ConfirmPayment polls the gateway for the order's authorization and
// applies the result through the same funnel the webhook uses
func (s *OrderService) ConfirmPayment(ctx context.Context, orderID, userID uint) (*models.Order, error) {
	order, err := s.GetUserOrder(orderID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.AuthorizationID) == "" {
		return nil, ErrPaymentNotRequired
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: card processor not configured", ErrPaymentGateway)
	}
	auth, err := s.gateway.RetrieveAuthorization(ctx, order.AuthorizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if err := s.applyAuthorizationStatus(order, auth.Status); err != nil {
		return nil, err
	}
	return s.GetOrder(order.ID)
}

// ApplyWebhookStatus resolves the order by authorization id and applies
// the processor-reported status. Unknown authorizations are not errors:
// the processor may replay events for orders already purged.
func (s *OrderService) ApplyWebhookStatus(authorizationID string, status string) error {
	order, err := s.orderRepo.GetByAuthorizationID(authorizationID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Infow("payment_webhook_unknown_authorization", "authorization_id", authorizationID)
		return nil
	}
	return s.applyAuthorizationStatus(order, status)
}

// applyAuthorizationStatus last-write-wins payment funnel. Every source
// (admin edit, confirm polling, webhook) converges here.
func (s *OrderService) applyAuthorizationStatus(order *models.Order, status string) error {
	var paymentStatus string
	switch status {
	case payment.AuthorizationStatusSucceeded:
		paymentStatus = constants.PaymentStatusPaid
	case payment.AuthorizationStatusFailed, payment.AuthorizationStatusCanceled:
		paymentStatus = constants.PaymentStatusFailed
	case payment.AuthorizationStatusRequiresAction:
		paymentStatus = constants.PaymentStatusRequiresAction
	case payment.AuthorizationStatusProcessing:
		paymentStatus = constants.PaymentStatusProcessing
	default:
		// pending carries no information worth persisting
		return nil
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if paymentStatus == constants.PaymentStatusPaid {
		if order.PaidAt == nil {
			updates["paid_at"] = time.Now()
		}
		// A successful payment also moves a freshly-created order
		// forward, in the same UPDATE as the payment status.
		if order.Status == constants.OrderStatusPending {
			updates["status"] = constants.OrderStatusProcessing
		}
	}
	return s.orderRepo.UpdatePaymentStatus(order.ID, paymentStatus, updates)
}

// DeleteCanceledOrder executes the deferred removal. The status is
// re-checked at execution time: an order revived out of canceled in the
// meantime survives.
func (s *OrderService) DeleteCanceledOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusCanceled {
		logger.Debugw("order_delete_skipped_not_canceled", "order_id", orderID, "status", order.Status)
		return nil
	}
	return s.orderRepo.DeleteWithItems(orderID)
}

func (s *OrderService) scheduleCanceledDelete(orderID uint) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	payload := queue.OrderDeleteCanceledPayload{OrderID: orderID}
	if err := s.queueClient.EnqueueOrderDeleteCanceled(payload, s.canceledDeleteTTL); err != nil {
		logger.Warnw("order_delete_enqueue_failed", "order_id", orderID, "error", err)
	}
}

func normalizePaymentMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case constants.PaymentMethodCard:
		return constants.PaymentMethodCard
	case constants.PaymentMethodCashOnDelivery, "":
		return constants.PaymentMethodCashOnDelivery
	default:
		return ""
	}
}

func isKnownPaymentStatus(status string) bool {
	switch status {
	case constants.PaymentStatusUnpaid, constants.PaymentStatusPaid,
		constants.PaymentStatusFailed, constants.PaymentStatusRequiresAction,
		constants.PaymentStatusProcessing:
		return true
	}
	return false
}

// genOrderNo timestamp plus random suffix, e.g. 20260828143015123456
func genOrderNo() string {
	suffix, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		suffix = big.NewInt(time.Now().UnixNano() % 1000000)
	}
	return fmt.Sprintf("%s%06d", time.Now().Format("20060102150405"), suffix.Int64())
}
