package repositories

import (
	"context"
	"sync"
)

// MockCartRepository is an in-memory implementation of CartRepository.
type MockCartRepository struct {
	carts map[string]map[string]int
	mu    sync.RWMutex
}

// NewMockCartRepository creates a new instance of MockCartRepository.
func NewMockCartRepository() *MockCartRepository {
	return &MockCartRepository{
		carts: make(map[string]map[string]int),
	}
}

// Get returns the cart contents. A missing cart is an empty cart.
func (r *MockCartRepository) Get(_ context.Context, cartID string) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make(map[string]int, len(r.carts[cartID]))
	for productID, qty := range r.carts[cartID] {
		items[productID] = qty
	}
	return items, nil
}

// SetItem sets the quantity for a product line.
func (r *MockCartRepository) SetItem(_ context.Context, cartID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.carts[cartID] == nil {
		r.carts[cartID] = make(map[string]int)
	}
	r.carts[cartID][productID] = quantity
	return nil
}

// RemoveItem drops a product line from the cart.
func (r *MockCartRepository) RemoveItem(_ context.Context, cartID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts[cartID], productID)
	return nil
}

// Clear deletes the whole cart.
func (r *MockCartRepository) Clear(_ context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.carts, cartID)
	return nil
}
