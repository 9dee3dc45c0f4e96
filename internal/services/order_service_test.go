package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) List(filter repositories.OrderFilter) ([]models.Order, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPaymentIntentID(intentID string) (*models.Order, error) {
	args := m.Called(intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) Cancel(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) SetPayment(id string, status models.PaymentStatus, intentID string) error {
	args := m.Called(id, status, intentID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.OrderEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishOrderCreated(payload map[string]interface{}) error {
	args := m.Called(payload)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishOrderStatusChanged(payload map[string]interface{}) error {
	args := m.Called(payload)
	return args.Error(0)
}

func newOrderServiceForTest(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository,
	cartRepo repositories.CartRepository, publisher services.OrderEventPublisher) *services.OrderService {
	return services.NewOrderService(orderRepo, productRepo, cartRepo, publisher, 7.5, 100.0)
}

var testAddress = models.ShippingAddress{
	FullName:   "Ada Example",
	Line1:      "1 Example Way",
	City:       "Exampleton",
	PostalCode: "12345",
	Country:    "NL",
}

func TestOrderService_Checkout_ExplicitItems(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	cartRepo := repositories.NewMockCartRepository()
	service := newOrderServiceForTest(orderRepo, productRepo, cartRepo, publisher)

	laptop := &models.Product{ID: "prod-1", Name: "Laptop", Price: 1200.00, Stock: 10}
	mouse := &models.Product{ID: "prod-2", Name: "Mouse", Price: 25.00, Stock: 50}
	productRepo.On("GetByID", "prod-1").Return(laptop, nil)
	productRepo.On("GetByID", "prod-2").Return(mouse, nil)
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil)
	publisher.On("PublishOrderCreated", mock.Anything).Return(nil)

	// Above the free-shipping threshold
	order, err := service.Checkout(context.Background(), "user-1", services.CheckoutRequest{
		Items: []services.CheckoutItem{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-2", Quantity: 1},
		},
		ShippingAddress: testAddress,
	})
	assert.NoError(t, err)
	assert.Equal(t, 2425.00, order.Subtotal)
	assert.Equal(t, 0.0, order.ShippingFee)
	assert.Equal(t, 2425.00, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Len(t, order.Items, 2)
	// Unit prices are snapshots
	assert.Equal(t, 1200.00, order.Items[0].UnitPrice)
	assert.Equal(t, "Laptop", order.Items[0].Name)

	// Below the threshold pays the flat fee
	order, err = service.Checkout(context.Background(), "user-1", services.CheckoutRequest{
		Items:           []services.CheckoutItem{{ProductID: "prod-2", Quantity: 1}},
		ShippingAddress: testAddress,
	})
	assert.NoError(t, err)
	assert.Equal(t, 25.00, order.Subtotal)
	assert.Equal(t, 7.5, order.ShippingFee)
	assert.Equal(t, 32.5, order.Total)

	publisher.AssertNumberOfCalls(t, "PublishOrderCreated", 2)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_Checkout_InsufficientStock(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	cartRepo := repositories.NewMockCartRepository()
	service := newOrderServiceForTest(orderRepo, productRepo, cartRepo, nil)

	productRepo.On("GetByID", "prod-1").
		Return(&models.Product{ID: "prod-1", Name: "Laptop", Price: 1200.00, Stock: 1}, nil).Once()

	_, err := service.Checkout(context.Background(), "user-1", services.CheckoutRequest{
		Items:           []services.CheckoutItem{{ProductID: "prod-1", Quantity: 3}},
		ShippingAddress: testAddress,
	})
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Laptop")
	orderRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestOrderService_Checkout_FromCart(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	productRepo := new(MockProductRepository)
	publisher := new(MockEventPublisher)
	cartRepo := repositories.NewMockCartRepository()
	service := newOrderServiceForTest(orderRepo, productRepo, cartRepo, publisher)

	ctx := context.Background()
	assert.NoError(t, cartRepo.SetItem(ctx, "user-1", "prod-2", 4))

	productRepo.On("GetByID", "prod-2").
		Return(&models.Product{ID: "prod-2", Name: "Mouse", Price: 25.00, Stock: 50}, nil)
	orderRepo.On("Create", mock.AnythingOfType("*models.Order")).Return(nil).Once()
	publisher.On("PublishOrderCreated", mock.Anything).Return(nil).Once()

	order, err := service.Checkout(ctx, "user-1", services.CheckoutRequest{ShippingAddress: testAddress})
	assert.NoError(t, err)
	assert.Equal(t, 100.00, order.Subtotal)
	assert.Equal(t, 0.0, order.ShippingFee) // exactly at the free-shipping threshold
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 4, order.Items[0].Quantity)

	// Checkout from the stored cart clears it
	stored, err := cartRepo.Get(ctx, "user-1")
	assert.NoError(t, err)
	assert.Empty(t, stored)

	// A second checkout from the now-empty cart is rejected
	_, err = service.Checkout(ctx, "user-1", services.CheckoutRequest{ShippingAddress: testAddress})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one item")
}

func TestOrderService_GetOrderForUser(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	service := newOrderServiceForTest(orderRepo, new(MockProductRepository), repositories.NewMockCartRepository(), nil)

	order := &models.Order{ID: "order-1", UserID: "user-1"}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Twice()

	got, err := service.GetOrderForUser("order-1", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, order, got)

	// Another user's order looks like a missing one
	_, err = service.GetOrderForUser("order-1", "user-2")
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	orderRepo.AssertExpectations(t)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	publisher := new(MockEventPublisher)
	service := newOrderServiceForTest(orderRepo, new(MockProductRepository), repositories.NewMockCartRepository(), publisher)

	// Invalid status is rejected before touching the repository
	err := service.UpdateOrderStatus("order-1", "sideways")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order status")

	// Regular transition goes through UpdateStatus
	orderRepo.On("UpdateStatus", "order-1", models.OrderShipped).Return(nil).Once()
	publisher.On("PublishOrderStatusChanged", mock.MatchedBy(func(p map[string]interface{}) bool {
		return p["status"] == "shipped"
	})).Return(nil).Once()
	err = service.UpdateOrderStatus("order-1", models.OrderShipped)
	assert.NoError(t, err)

	// Cancelling goes through the stock-restoring path
	orderRepo.On("Cancel", "order-2").Return(&models.Order{ID: "order-2", Status: models.OrderCancelled}, nil).Once()
	publisher.On("PublishOrderStatusChanged", mock.MatchedBy(func(p map[string]interface{}) bool {
		return p["status"] == "cancelled"
	})).Return(nil).Once()
	err = service.UpdateOrderStatus("order-2", models.OrderCancelled)
	assert.NoError(t, err)

	// Cancel after shipment is surfaced
	orderRepo.On("Cancel", "order-3").
		Return(nil, fmt.Errorf("order order-3 is shipped: %w", repositories.ErrNotCancellable)).Once()
	err = service.UpdateOrderStatus("order-3", models.OrderCancelled)
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotCancellable)

	orderRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOrderService_MarkPaymentSucceeded(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	publisher := new(MockEventPublisher)
	service := newOrderServiceForTest(orderRepo, new(MockProductRepository), repositories.NewMockCartRepository(), publisher)

	pending := &models.Order{ID: "order-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(pending, nil).Once()
	orderRepo.On("SetPayment", "order-1", models.PaymentPaid, "").Return(nil).Once()
	orderRepo.On("UpdateStatus", "order-1", models.OrderProcessing).Return(nil).Once()
	publisher.On("PublishOrderStatusChanged", mock.Anything).Return(nil).Once()

	assert.NoError(t, service.MarkPaymentSucceeded("pi_123"))
	orderRepo.AssertExpectations(t)

	// Replayed notification for an already-paid order is a no-op
	paid := &models.Order{ID: "order-1", Status: models.OrderProcessing, PaymentStatus: models.PaymentPaid}
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(paid, nil).Once()
	assert.NoError(t, service.MarkPaymentSucceeded("pi_123"))
	orderRepo.AssertExpectations(t)
	orderRepo.AssertNumberOfCalls(t, "SetPayment", 1)
}

func TestOrderService_MarkPaymentFailed(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	service := newOrderServiceForTest(orderRepo, new(MockProductRepository), repositories.NewMockCartRepository(), nil)

	pending := &models.Order{ID: "order-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(pending, nil).Once()
	orderRepo.On("SetPayment", "order-1", models.PaymentFailed, "").Return(nil).Once()
	assert.NoError(t, service.MarkPaymentFailed("pi_123"))

	// A failure notification never downgrades a paid order
	paid := &models.Order{ID: "order-1", Status: models.OrderProcessing, PaymentStatus: models.PaymentPaid}
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(paid, nil).Once()
	assert.NoError(t, service.MarkPaymentFailed("pi_123"))
	orderRepo.AssertNumberOfCalls(t, "SetPayment", 1)
}
