package repositories

import "context"

// CartRepository persists cart contents as (product ID → quantity) pairs
// keyed by a cart ID (the user ID, or a client-supplied ID for anonymous
// sessions).
type CartRepository interface {
	Get(ctx context.Context, cartID string) (map[string]int, error)
	SetItem(ctx context.Context, cartID, productID string, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}
