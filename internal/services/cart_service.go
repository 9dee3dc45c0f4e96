package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog/log"
)

// CartService handles business logic for persisted shopping carts.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the cart joined with current product data. Lines whose
// product has been deleted since they were added are dropped from the
// stored cart rather than failing the read.
func (s *CartService) GetCart(ctx context.Context, cartID string) (*models.Cart, error) {
	stored, err := s.cartRepo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{ID: cartID, Items: []models.CartItem{}}
	for productID, qty := range stored {
		product, err := s.productRepo.GetByID(productID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				if removeErr := s.cartRepo.RemoveItem(ctx, cartID, productID); removeErr != nil {
					log.Warn().Err(removeErr).Str("cart_id", cartID).Str("product_id", productID).
						Msg("failed to drop stale cart line")
				}
				continue
			}
			return nil, err
		}
		line := models.CartItem{
			Product:   *product,
			Quantity:  qty,
			LineTotal: round2(product.Price * float64(qty)),
		}
		cart.Items = append(cart.Items, line)
		cart.Subtotal = round2(cart.Subtotal + line.LineTotal)
	}

	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].Product.Name < cart.Items[j].Product.Name
	})
	return cart, nil
}

// AddItem adds quantity of a product to the cart, merging with any existing
// line. The resulting quantity is clamped to the available stock.
func (s *CartService) AddItem(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product.Stock == 0 {
		return fmt.Errorf("product %s is out of stock: %w", product.Name, repositories.ErrInsufficientStock)
	}

	stored, err := s.cartRepo.Get(ctx, cartID)
	if err != nil {
		return err
	}
	newQty := stored[productID] + quantity
	if newQty > product.Stock {
		newQty = product.Stock
	}
	return s.cartRepo.SetItem(ctx, cartID, productID, newQty)
}

// UpdateItem sets the quantity of a cart line. Zero (or negative) removes
// the line; quantities above stock are clamped.
func (s *CartService) UpdateItem(ctx context.Context, cartID, productID string, quantity int) error {
	if quantity <= 0 {
		return s.cartRepo.RemoveItem(ctx, cartID, productID)
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product.Stock == 0 {
		return fmt.Errorf("product %s is out of stock: %w", product.Name, repositories.ErrInsufficientStock)
	}
	if quantity > product.Stock {
		quantity = product.Stock
	}
	return s.cartRepo.SetItem(ctx, cartID, productID, quantity)
}

// RemoveItem drops a product line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, productID string) error {
	return s.cartRepo.RemoveItem(ctx, cartID, productID)
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, cartID string) error {
	return s.cartRepo.Clear(ctx, cartID)
}
