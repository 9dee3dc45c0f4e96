package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrderEventPublisher publishes order lifecycle events for downstream
// consumers. Implemented by the rabbitmq client.
type OrderEventPublisher interface {
	PublishOrderCreated(payload map[string]interface{}) error
	PublishOrderStatusChanged(payload map[string]interface{}) error
}

// CheckoutItem is an explicit (product, quantity) pair in a checkout
// request.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CheckoutRequest describes an order to be created. When Items is empty the
// order is built from the user's own stored cart, which is cleared on
// success. The cart key is never client-supplied; it is always the
// authenticated user's ID.
type CheckoutRequest struct {
	Items           []CheckoutItem         `json:"items" validate:"omitempty,dive"`
	ShippingAddress models.ShippingAddress `json:"shipping_address" validate:"required"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	cartRepo    repositories.CartRepository
	publisher   OrderEventPublisher

	shippingFlatFee       float64
	freeShippingThreshold float64
}

// NewOrderService creates a new OrderService. publisher may be nil, in
// which case event publication is skipped.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	cartRepo repositories.CartRepository,
	publisher OrderEventPublisher,
	shippingFlatFee, freeShippingThreshold float64,
) *OrderService {
	return &OrderService{
		orderRepo:             orderRepo,
		productRepo:           productRepo,
		cartRepo:              cartRepo,
		publisher:             publisher,
		shippingFlatFee:       shippingFlatFee,
		freeShippingThreshold: freeShippingThreshold,
	}
}

// round2 rounds a money amount to cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Checkout creates an order for the user: validates products and stock,
// snapshots unit prices, computes totals and reserves stock. Orders built
// from the stored cart clear it on success.
func (s *OrderService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*models.Order, error) {
	items := req.Items
	fromCart := false

	if len(items) == 0 {
		stored, err := s.cartRepo.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart for checkout: %w", err)
		}
		for productID, qty := range stored {
			items = append(items, CheckoutItem{ProductID: productID, Quantity: qty})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
		fromCart = true
	}
	if len(items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}

	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", item.ProductID)
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found: %w", item.ProductID, err)
		}
		// Pre-check; the repository re-checks atomically when reserving.
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("product %s (requested: %d, available: %d): %w",
				product.Name, item.Quantity, product.Stock, repositories.ErrInsufficientStock)
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID: item.ProductID,
			Name:      product.Name,
			UnitPrice: product.Price, // price snapshot at checkout
			Quantity:  item.Quantity,
		})
		subtotal += product.Price * float64(item.Quantity)
	}
	subtotal = round2(subtotal)

	shippingFee := s.shippingFlatFee
	if subtotal >= s.freeShippingThreshold {
		shippingFee = 0
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: req.ShippingAddress,
		Subtotal:        subtotal,
		ShippingFee:     shippingFee,
		Total:           round2(subtotal + shippingFee),
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentUnpaid,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if fromCart {
		if err := s.cartRepo.Clear(ctx, userID); err != nil {
			log.Warn().Err(err).Str("cart_id", userID).Str("order_id", order.ID).
				Msg("order created but cart could not be cleared")
		}
	}

	s.publishCreated(order)
	return order, nil
}

// GetOrderForUser retrieves an order only if it belongs to the user.
// Foreign orders look like missing ones so order IDs cannot be probed.
func (s *OrderService) GetOrderForUser(id, userID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order with ID %s: %w", id, repositories.ErrNotFound)
	}
	return order, nil
}

// ListOrdersForUser retrieves the user's own orders, newest first.
func (s *OrderService) ListOrdersForUser(userID string) ([]models.Order, error) {
	return s.orderRepo.List(repositories.OrderFilter{UserID: userID})
}

// ListOrders retrieves orders across all users, optionally filtered by
// status. Admin only.
func (s *OrderService) ListOrders(status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}
	return s.orderRepo.List(repositories.OrderFilter{Status: status, Limit: limit, Offset: offset})
}

// GetOrder retrieves any order by ID. Admin only.
func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// UpdateOrderStatus sets the status label of an order. Cancelling restores
// the reserved stock and is rejected once the order has shipped.
func (s *OrderService) UpdateOrderStatus(id string, status models.OrderStatus) error {
	if !models.ValidOrderStatus(status) {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if status == models.OrderCancelled {
		if _, err := s.orderRepo.Cancel(id); err != nil {
			return fmt.Errorf("failed to cancel order %s: %w", id, err)
		}
	} else {
		if err := s.orderRepo.UpdateStatus(id, status); err != nil {
			return fmt.Errorf("failed to update order status for order %s: %w", id, err)
		}
	}

	s.publishStatusChanged(id, status)
	return nil
}

// MarkPaymentSucceeded records a successful charge against the order
// referencing the payment intent and moves a pending order to processing.
// Repeat notifications for an already-paid order are no-ops.
func (s *OrderService) MarkPaymentSucceeded(intentID string) error {
	order, err := s.orderRepo.GetByPaymentIntentID(intentID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil // idempotent: webhook retries and client confirms overlap
	}
	if err := s.orderRepo.SetPayment(order.ID, models.PaymentPaid, ""); err != nil {
		return err
	}
	if order.Status == models.OrderPending {
		if err := s.orderRepo.UpdateStatus(order.ID, models.OrderProcessing); err != nil {
			return err
		}
		s.publishStatusChanged(order.ID, models.OrderProcessing)
	}
	return nil
}

// MarkPaymentFailed records a failed charge. A failure notification never
// downgrades an order that has already been paid.
func (s *OrderService) MarkPaymentFailed(intentID string) error {
	order, err := s.orderRepo.GetByPaymentIntentID(intentID)
	if err != nil {
		return err
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil
	}
	return s.orderRepo.SetPayment(order.ID, models.PaymentFailed, "")
}

func (s *OrderService) publishCreated(order *models.Order) {
	if s.publisher == nil {
		log.Debug().Msg("event publisher not configured, skipping order.created")
		return
	}
	payload := map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   string(order.Status),
		"total":    order.Total,
	}
	if err := s.publisher.PublishOrderCreated(payload); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order created event")
	}
}

func (s *OrderService) publishStatusChanged(orderID string, status models.OrderStatus) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"order_id": orderID,
		"status":   string(status),
	}
	if err := s.publisher.PublishOrderStatusChanged(payload); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("failed to publish order status event")
	}
}
