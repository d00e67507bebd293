package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/events"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartKey fully-qualified cart identity: cart:user:<id> or cart:guest:<session>
type CartKey string

// UserCartKey derives the cart key for an authenticated user
func UserCartKey(userID uint) CartKey {
	return CartKey(constants.CartKeyUserPrefix + strconv.FormatUint(uint64(userID), 10))
}

// GuestCartKey derives the cart key for an anonymous session
func GuestCartKey(sessionID string) CartKey {
	return CartKey(constants.CartKeyGuestPrefix + strings.TrimSpace(sessionID))
}

// IsGuest reports whether the key belongs to an anonymous session
func (k CartKey) IsGuest() bool {
	return strings.HasPrefix(string(k), constants.CartKeyGuestPrefix)
}

// CartStore storage contract for the cart hash
type CartStore interface {
	IncrField(ctx context.Context, key, field string, delta int64) (int64, error)
	SetField(ctx context.Context, key, field string, qty int64) error
	DelFields(ctx context.Context, key string, fields ...string) error
	GetAll(ctx context.Context, key string) (map[string]int64, error)
	DeleteKey(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Len(ctx context.Context, key string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	MergeInto(ctx context.Context, dst, src string) error
}

// CartLocker per-cart-key mutex contract
type CartLocker interface {
	Lock(ctx context.Context, name string) (func() error, error)
}

// CartSnapshotItem one priced line of a cart snapshot
type CartSnapshotItem struct {
	ProductID uint         `json:"product_id"`
	Name      string       `json:"name"`
	UnitPrice models.Money `json:"unit_price"`
	Quantity  int          `json:"quantity"`
	LineTotal models.Money `json:"line_total"`
}

// CartSnapshot a point-in-time priced view of a cart. ItemCount is the
// summed quantity across lines, not the number of lines.
type CartSnapshot struct {
	Items       []CartSnapshotItem `json:"items"`
	TotalAmount models.Money       `json:"total_amount"`
	ItemCount   int                `json:"item_count"`
}

// IsEmpty reports whether the snapshot carries no purchasable lines
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// CartService Redis-hash cart engine. Mutations on the same cart key
// serialize behind a distributed mutex; reads never take it.
type CartService struct {
	store       CartStore
	locker      CartLocker
	productRepo repository.ProductRepository
	publisher   events.Publisher
	userTTL     time.Duration
	guestTTL    time.Duration
}

// NewCartService creates the cart engine
func NewCartService(store CartStore, locker CartLocker, productRepo repository.ProductRepository, publisher events.Publisher, userTTL, guestTTL time.Duration) *CartService {
	if userTTL <= 0 {
		userTTL = 7 * 24 * time.Hour
	}
	if guestTTL <= 0 {
		guestTTL = 24 * time.Hour
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CartService{
		store:       store,
		locker:      locker,
		productRepo: productRepo,
		publisher:   publisher,
		userTTL:     userTTL,
		guestTTL:    guestTTL,
	}
}

func (s *CartService) ttlFor(key CartKey) time.Duration {
	if key.IsGuest() {
		return s.guestTTL
	}
	return s.userTTL
}

func productField(productID uint) string {
	return strconv.FormatUint(uint64(productID), 10)
}

// lock serializes mutations of one cart key. Acquisition failures surface
// as the transient ErrCartLockTimeout.
func (s *CartService) lock(ctx context.Context, key CartKey) (func() error, error) {
	unlock, err := s.locker.Lock(ctx, string(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCartLockTimeout, err)
	}
	return unlock, nil
}

// refreshTTL slides the expiration window while the cart is non-empty
func (s *CartService) refreshTTL(ctx context.Context, key CartKey) {
	count, err := s.store.Len(ctx, string(key))
	if err != nil || count == 0 {
		return
	}
	if err := s.store.Expire(ctx, string(key), s.ttlFor(key)); err != nil {
		logger.Warnw("cart_ttl_refresh_failed", "cart_key", string(key), "error", err)
	}
}

// AddItem increments a product quantity by qty, creating the line when
// absent. Returns the resulting quantity.
func (s *CartService) AddItem(ctx context.Context, key CartKey, productID uint, qty int) (int64, error) {
	if productID == 0 || qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	products, err := s.productRepo.ListByIDs([]uint{productID})
	if err != nil {
		return 0, err
	}
	if len(products) == 0 || !products[0].IsActive {
		return 0, ErrProductUnavailable
	}

	unlock, err := s.lock(ctx, key)
	if err != nil {
		return 0, err
	}
	defer func() { _ = unlock() }()

	newQty, err := s.store.IncrField(ctx, string(key), productField(productID), int64(qty))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	s.refreshTTL(ctx, key)
	s.publisher.Publish(ctx, constants.EventCartUpdated, map[string]interface{}{
		"cart_key":   string(key),
		"product_id": productID,
		"quantity":   newQty,
	})
	return newQty, nil
}

// UpdateItem writes an absolute quantity. Zero or negative removes the line.
func (s *CartService) UpdateItem(ctx context.Context, key CartKey, productID uint, qty int) error {
	if productID == 0 {
		return ErrInvalidQuantity
	}
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	field := productField(productID)
	if qty <= 0 {
		if err := s.store.DelFields(ctx, string(key), field); err != nil {
			return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
		}
	} else {
		if err := s.store.SetField(ctx, string(key), field, int64(qty)); err != nil {
			return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
		}
	}
	s.refreshTTL(ctx, key)
	s.publisher.Publish(ctx, constants.EventCartUpdated, map[string]interface{}{
		"cart_key":   string(key),
		"product_id": productID,
		"quantity":   qty,
	})
	return nil
}

// RemoveItem drops a product line
func (s *CartService) RemoveItem(ctx context.Context, key CartKey, productID uint) error {
	return s.UpdateItem(ctx, key, productID, 0)
}

// Clear deletes the whole cart. Runs without the mutex: deletion is
// idempotent and callers treat failures as best-effort.
func (s *CartService) Clear(ctx context.Context, key CartKey) error {
	if err := s.store.DeleteKey(ctx, string(key)); err != nil {
		return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	s.publisher.Publish(ctx, constants.EventCartUpdated, map[string]interface{}{
		"cart_key": string(key),
		"cleared":  true,
	})
	return nil
}

// Snapshot builds a priced view of the cart without taking the mutex.
// Product lookups are batched; lines whose product no longer exists or
// is inactive are skipped silently. A store failure degrades to an empty
// snapshot so read paths stay up.
func (s *CartService) Snapshot(ctx context.Context, key CartKey) (CartSnapshot, error) {
	raw, err := s.store.GetAll(ctx, string(key))
	if err != nil {
		logger.Warnw("cart_snapshot_store_failed", "cart_key", string(key), "error", err)
		return CartSnapshot{Items: []CartSnapshotItem{}}, nil
	}

	ids := make([]uint, 0, len(raw))
	quantities := make(map[uint]int64, len(raw))
	for field, qty := range raw {
		if qty <= 0 {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
		quantities[uint(id)] = qty
	}

	snapshot := CartSnapshot{Items: []CartSnapshotItem{}}
	if len(ids) == 0 {
		return snapshot, nil
	}

	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return snapshot, err
	}

	total := decimal.Zero
	for _, product := range products {
		if !product.IsActive {
			continue
		}
		qty := quantities[product.ID]
		if qty <= 0 {
			continue
		}
		lineTotal := product.Price.Decimal.Mul(decimal.NewFromInt(qty))
		snapshot.Items = append(snapshot.Items, CartSnapshotItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  int(qty),
			LineTotal: models.NewMoneyFromDecimal(lineTotal),
		})
		total = total.Add(lineTotal)
		snapshot.ItemCount += int(qty)
	}
	snapshot.TotalAmount = models.NewMoneyFromDecimal(total)

	if len(snapshot.Items) > 0 {
		s.refreshTTL(ctx, key)
	}
	return snapshot, nil
}

// MergeGuestCart folds a guest cart into the user cart, summing
// quantities per product, then removes the guest key. The whole merge
// runs as one batched store operation under the destination lock.
func (s *CartService) MergeGuestCart(ctx context.Context, userKey, guestKey CartKey) error {
	unlock, err := s.lock(ctx, userKey)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	if err := s.store.MergeInto(ctx, string(userKey), string(guestKey)); err != nil {
		return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	s.refreshTTL(ctx, userKey)
	s.publisher.Publish(ctx, constants.EventCartUpdated, map[string]interface{}{
		"cart_key":   string(userKey),
		"merged_key": string(guestKey),
	})
	return nil
}

// GetTTL returns the remaining cart lifetime
func (s *CartService) GetTTL(ctx context.Context, key CartKey) (time.Duration, error) {
	ttl, err := s.store.TTL(ctx, string(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	return ttl, nil
}

// ExtendExpiration re-arms the sliding window on a non-empty cart
func (s *CartService) ExtendExpiration(ctx context.Context, key CartKey) error {
	count, err := s.store.Len(ctx, string(key))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	if count == 0 {
		return nil
	}
	if err := s.store.Expire(ctx, string(key), s.ttlFor(key)); err != nil {
		return fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	return nil
}

// Exists reports whether the cart key is present in the store
func (s *CartService) Exists(ctx context.Context, key CartKey) (bool, error) {
	ok, err := s.store.Exists(ctx, string(key))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCartStoreUnavailable, err)
	}
	return ok, nil
}
