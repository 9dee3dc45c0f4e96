package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// cartTTL is how long an untouched cart survives. Every write refreshes it.
const cartTTL = 30 * 24 * time.Hour

// RedisCartRepository stores each cart as a Redis hash of
// product ID → quantity under "cart:<cartID>".
type RedisCartRepository struct {
	client *redis.Client
}

// NewRedisCartRepository creates a new instance of RedisCartRepository.
func NewRedisCartRepository(client *redis.Client) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
	}
}

func cartKey(cartID string) string {
	return "cart:" + cartID
}

// Get returns the cart contents. A missing cart is an empty cart.
func (r *RedisCartRepository) Get(ctx context.Context, cartID string) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, cartKey(cartID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart %s: %w", cartID, err)
	}
	items := make(map[string]int, len(raw))
	for productID, qty := range raw {
		n, err := strconv.Atoi(qty)
		if err != nil || n <= 0 {
			continue // skip corrupt fields rather than failing the whole cart
		}
		items[productID] = n
	}
	return items, nil
}

// SetItem sets the quantity for a product line and refreshes the cart TTL.
func (r *RedisCartRepository) SetItem(ctx context.Context, cartID, productID string, quantity int) error {
	key := cartKey(cartID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, productID, strconv.Itoa(quantity))
	pipe.Expire(ctx, key, cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cart item %s/%s: %w", cartID, productID, err)
	}
	return nil
}

// RemoveItem drops a product line from the cart.
func (r *RedisCartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	if err := r.client.HDel(ctx, cartKey(cartID), productID).Err(); err != nil {
		return fmt.Errorf("failed to remove cart item %s/%s: %w", cartID, productID, err)
	}
	return nil
}

// Clear deletes the whole cart.
func (r *RedisCartRepository) Clear(ctx context.Context, cartID string) error {
	if err := r.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}
