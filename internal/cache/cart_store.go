package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartStore keeps carts as Redis hashes: one hash per cart key, field =
// product id, value = quantity. All quantities stored are positive; a
// field reaching zero is deleted rather than stored.
type CartStore struct {
	client *redis.Client
}

// NewCartStore creates a cart store over the given client
func NewCartStore(client *redis.Client) *CartStore {
	return &CartStore{client: client}
}

// IncrField atomically adds delta to a product quantity and returns the new value
func (s *CartStore) IncrField(ctx context.Context, key, field string, delta int64) (int64, error) {
	return s.client.HIncrBy(ctx, buildKey(key), field, delta).Result()
}

// SetField writes an absolute product quantity
func (s *CartStore) SetField(ctx context.Context, key, field string, qty int64) error {
	return s.client.HSet(ctx, buildKey(key), field, qty).Err()
}

// DelFields removes product fields from the hash
func (s *CartStore) DelFields(ctx context.Context, key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return s.client.HDel(ctx, buildKey(key), fields...).Err()
}

// GetAll returns the full product-id → quantity mapping
func (s *CartStore) GetAll(ctx context.Context, key string) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, buildKey(key)).Result()
	if err != nil {
		return nil, err
	}
	items := make(map[string]int64, len(raw))
	for field, value := range raw {
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		items[field] = qty
	}
	return items, nil
}

// DeleteKey removes the whole cart hash
func (s *CartStore) DeleteKey(ctx context.Context, key string) error {
	return s.client.Del(ctx, buildKey(key)).Err()
}

// Expire refreshes the sliding TTL on the cart hash
func (s *CartStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, buildKey(key), ttl).Err()
}

// TTL returns the remaining lifetime of the cart hash. Redis semantics
// pass through: -1s for no expiry, -2s for a missing key.
func (s *CartStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.client.TTL(ctx, buildKey(key)).Result()
}

// Len returns the number of distinct products in the cart
func (s *CartStore) Len(ctx context.Context, key string) (int64, error) {
	return s.client.HLen(ctx, buildKey(key)).Result()
}

// Exists reports whether the cart hash exists
func (s *CartStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, buildKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MergeInto folds the src cart into dst as one pipelined batch, summing
// quantities per product, then removes src. Callers hold the dst lock.
func (s *CartStore) MergeInto(ctx context.Context, dst, src string) error {
	items, err := s.client.HGetAll(ctx, buildKey(src)).Result()
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	for field, value := range items {
		qty, err := strconv.ParseInt(value, 10, 64)
		if err != nil || qty <= 0 {
			continue
		}
		pipe.HIncrBy(ctx, buildKey(dst), field, qty)
	}
	pipe.Del(ctx, buildKey(src))
	_, err = pipe.Exec(ctx)
	return err
}
