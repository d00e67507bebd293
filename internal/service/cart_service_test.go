package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeCartStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]int64
	expires map[string]time.Duration
	fail    bool
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{
		hashes:  make(map[string]map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

var errStoreDown = errors.New("store down")

func (f *fakeCartStore) hash(key string) map[string]int64 {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]int64)
	}
	return f.hashes[key]
}

func (f *fakeCartStore) IncrField(_ context.Context, key, field string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errStoreDown
	}
	h := f.hash(key)
	h[field] += delta
	return h[field], nil
}

func (f *fakeCartStore) SetField(_ context.Context, key, field string, qty int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	f.hash(key)[field] = qty
	return nil
}

func (f *fakeCartStore) DelFields(_ context.Context, key string, fields ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	h := f.hash(key)
	for _, field := range fields {
		delete(h, field)
	}
	return nil
}

func (f *fakeCartStore) GetAll(_ context.Context, key string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errStoreDown
	}
	out := make(map[string]int64, len(f.hashes[key]))
	for field, qty := range f.hashes[key] {
		out[field] = qty
	}
	return out, nil
}

func (f *fakeCartStore) DeleteKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	delete(f.hashes, key)
	delete(f.expires, key)
	return nil
}

func (f *fakeCartStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = ttl
	return nil
}

func (f *fakeCartStore) TTL(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.hashes[key]; !ok {
		return -2 * time.Second, nil
	}
	return f.expires[key], nil
}

func (f *fakeCartStore) Len(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errStoreDown
	}
	return int64(len(f.hashes[key])), nil
}

func (f *fakeCartStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.hashes[key]
	return ok && len(f.hashes[key]) > 0, nil
}

func (f *fakeCartStore) MergeInto(_ context.Context, dst, src string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errStoreDown
	}
	h := f.hash(dst)
	for field, qty := range f.hashes[src] {
		if qty <= 0 {
			continue
		}
		h[field] += qty
	}
	delete(f.hashes, src)
	delete(f.expires, src)
	return nil
}

type fakeCartLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	fail  bool
}

func newFakeCartLocker() *fakeCartLocker {
	return &fakeCartLocker{locks: make(map[string]*sync.Mutex)}
}

func (f *fakeCartLocker) Lock(_ context.Context, name string) (func() error, error) {
	if f.fail {
		return nil, errors.New("lock wait expired")
	}
	f.mu.Lock()
	if f.locks[name] == nil {
		f.locks[name] = &sync.Mutex{}
	}
	m := f.locks[name]
	f.mu.Unlock()
	m.Lock()
	return func() error {
		m.Unlock()
		return nil
	}, nil
}

func openCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func seedCartProduct(t *testing.T, db *gorm.DB, slug string, price string, active bool) models.Product {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	category := models.Category{Slug: slug + "-category", Name: "Category"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := models.Product{
		CategoryID: category.ID,
		Slug:       slug,
		Name:       "Product " + slug,
		Price:      models.NewMoneyFromDecimal(amount),
		IsActive:   active,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func newTestCartService(store CartStore, locker CartLocker, db *gorm.DB) *CartService {
	return NewCartService(store, locker, repository.NewProductRepository(db), nil, 0, 0)
}

func TestAddItemSumsQuantities(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "widget", "19.99", true)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)
	key := UserCartKey(7)

	if _, err := svc.AddItem(context.Background(), key, product.ID, 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	qty, err := svc.AddItem(context.Background(), key, product.ID, 3)
	if err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if qty != 5 {
		t.Fatalf("expected quantity 5, got %d", qty)
	}
}

func TestConcurrentMutationsLinearizeUnderCartLock(t *testing.T) {
	db := openCartTestDB(t)
	a := seedCartProduct(t, db, "hot-a", "2.00", true)
	b := seedCartProduct(t, db, "hot-b", "3.00", true)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)
	key := UserCartKey(42)
	ctx := context.Background()

	const workers = 40
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			if _, err := svc.AddItem(ctx, key, a.ID, 1); err != nil {
				t.Errorf("AddItem a error: %v", err)
			}
			switch n % 3 {
			case 0:
				if _, err := svc.AddItem(ctx, key, b.ID, 2); err != nil {
					t.Errorf("AddItem b error: %v", err)
				}
			case 1:
				if err := svc.UpdateItem(ctx, key, b.ID, 5); err != nil {
					t.Errorf("UpdateItem b error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	final, err := store.GetAll(ctx, string(key))
	if err != nil {
		t.Fatalf("GetAll error: %v", err)
	}
	if got := final[productField(a.ID)]; got != workers {
		t.Fatalf("expected %d adds of product a to sum to %d, got %d", workers, workers, got)
	}
	// Product b ends on either an increment result or the absolute write,
	// but never a torn or lost update.
	if got := final[productField(b.ID)]; got <= 0 {
		t.Fatalf("expected a positive quantity for product b, got %d", got)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "retired", "5.00", false)
	svc := newTestCartService(newFakeCartStore(), newFakeCartLocker(), db)

	if _, err := svc.AddItem(context.Background(), UserCartKey(1), product.ID, 1); !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got: %v", err)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "gadget", "3.50", true)
	svc := newTestCartService(newFakeCartStore(), newFakeCartLocker(), db)

	if _, err := svc.AddItem(context.Background(), UserCartKey(1), product.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "thing", "2.00", true)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)
	key := UserCartKey(3)

	if _, err := svc.AddItem(context.Background(), key, product.ID, 4); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if err := svc.UpdateItem(context.Background(), key, product.ID, 0); err != nil {
		t.Fatalf("UpdateItem error: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background(), key)
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if !snapshot.IsEmpty() {
		t.Fatalf("expected empty snapshot, got %d items", len(snapshot.Items))
	}
}

func TestLockFailureSurfacesAsTimeout(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "contended", "1.00", true)
	locker := newFakeCartLocker()
	locker.fail = true
	svc := newTestCartService(newFakeCartStore(), locker, db)

	if _, err := svc.AddItem(context.Background(), UserCartKey(9), product.ID, 1); !errors.Is(err, ErrCartLockTimeout) {
		t.Fatalf("expected ErrCartLockTimeout, got: %v", err)
	}
}

func TestSnapshotPricesAndTotals(t *testing.T) {
	db := openCartTestDB(t)
	a := seedCartProduct(t, db, "alpha", "19.99", true)
	b := seedCartProduct(t, db, "beta", "5.25", true)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)
	key := UserCartKey(11)

	if _, err := svc.AddItem(context.Background(), key, a.ID, 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), key, b.ID, 1); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background(), key)
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(snapshot.Items))
	}
	want, _ := decimal.NewFromString("45.23")
	if !snapshot.TotalAmount.Decimal.Equal(want) {
		t.Fatalf("expected total 45.23, got %s", snapshot.TotalAmount.Decimal.String())
	}
	if snapshot.ItemCount != 3 {
		t.Fatalf("expected item count 3, got %d", snapshot.ItemCount)
	}
}

func TestSnapshotSkipsDanglingAndInactive(t *testing.T) {
	db := openCartTestDB(t)
	active := seedCartProduct(t, db, "live", "10.00", true)
	inactive := seedCartProduct(t, db, "dead", "4.00", false)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)
	key := UserCartKey(4)

	ctx := context.Background()
	if _, err := store.IncrField(ctx, string(key), productField(active.ID), 1); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}
	if _, err := store.IncrField(ctx, string(key), productField(inactive.ID), 1); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}
	if _, err := store.IncrField(ctx, string(key), "999999", 1); err != nil {
		t.Fatalf("seed store failed: %v", err)
	}

	snapshot, err := svc.Snapshot(ctx, key)
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].ProductID != active.ID {
		t.Fatalf("expected only the active product, got %+v", snapshot.Items)
	}
}

func TestSnapshotStoreFailureDegradesToEmpty(t *testing.T) {
	db := openCartTestDB(t)
	store := newFakeCartStore()
	store.fail = true
	svc := newTestCartService(store, newFakeCartLocker(), db)

	snapshot, err := svc.Snapshot(context.Background(), UserCartKey(2))
	if err != nil {
		t.Fatalf("expected degraded snapshot, got error: %v", err)
	}
	if !snapshot.IsEmpty() {
		t.Fatalf("expected empty snapshot, got %d items", len(snapshot.Items))
	}
}

func TestMergeGuestCartSumsAndRemovesGuestKey(t *testing.T) {
	db := openCartTestDB(t)
	product := seedCartProduct(t, db, "mergeable", "1.50", true)
	store := newFakeCartStore()
	svc := newTestCartService(store, newFakeCartLocker(), db)

	ctx := context.Background()
	userKey := UserCartKey(5)
	guestKey := GuestCartKey("abc-session")

	if _, err := svc.AddItem(ctx, userKey, product.ID, 2); err != nil {
		t.Fatalf("AddItem error: %v", err)
	}
	if _, err := store.IncrField(ctx, string(guestKey), productField(product.ID), 3); err != nil {
		t.Fatalf("seed guest cart failed: %v", err)
	}

	if err := svc.MergeGuestCart(ctx, userKey, guestKey); err != nil {
		t.Fatalf("MergeGuestCart error: %v", err)
	}

	merged, err := store.GetAll(ctx, string(userKey))
	if err != nil {
		t.Fatalf("GetAll error: %v", err)
	}
	if merged[productField(product.ID)] != 5 {
		t.Fatalf("expected merged quantity 5, got %d", merged[productField(product.ID)])
	}
	if exists, _ := store.Exists(ctx, string(guestKey)); exists {
		t.Fatalf("expected guest cart removed after merge")
	}
}

func TestGuestCartKeyPrefix(t *testing.T) {
	if !GuestCartKey("s1").IsGuest() {
		t.Fatalf("expected guest key to report guest")
	}
	if UserCartKey(1).IsGuest() {
		t.Fatalf("expected user key to not report guest")
	}
}
