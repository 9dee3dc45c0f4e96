package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentGateway is a mock implementation of services.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateIntent(ctx context.Context, amountCents int64, currency, orderID string) (*payments.Intent, error) {
	args := m.Called(ctx, amountCents, currency, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockPaymentGateway) GetIntent(ctx context.Context, id string) (*payments.Intent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockPaymentGateway) VerifyWebhook(payload []byte, sigHeader string) (*payments.WebhookEvent, error) {
	args := m.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.WebhookEvent), args.Error(1)
}

func newPaymentServiceForTest(orderRepo repositories.OrderRepository, gateway services.PaymentGateway) *services.PaymentService {
	orders := services.NewOrderService(orderRepo, new(MockProductRepository), repositories.NewMockCartRepository(), nil, 7.5, 100.0)
	return services.NewPaymentService(orders, orderRepo, gateway)
}

func TestPaymentService_CreateIntent(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	service := newPaymentServiceForTest(orderRepo, gateway)

	order := &models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		Total:         32.5,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
	}
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	// Totals cross the gateway boundary in integer cents
	gateway.On("CreateIntent", mock.Anything, int64(3250), "usd", "order-1").
		Return(&payments.Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: "requires_payment_method", Amount: 3250}, nil).Once()
	orderRepo.On("SetPayment", "order-1", models.PaymentPending, "pi_123").Return(nil).Once()

	intent, err := service.CreateIntent(context.Background(), "order-1", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	orderRepo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestPaymentService_CreateIntent_Rejections(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	service := newPaymentServiceForTest(orderRepo, gateway)

	// Someone else's order looks like a missing one
	foreign := &models.Order{ID: "order-1", UserID: "user-2", Total: 10}
	orderRepo.On("GetByID", "order-1").Return(foreign, nil).Once()
	_, err := service.CreateIntent(context.Background(), "order-1", "user-1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// Already paid
	paid := &models.Order{ID: "order-2", UserID: "user-1", Total: 10, PaymentStatus: models.PaymentPaid}
	orderRepo.On("GetByID", "order-2").Return(paid, nil).Once()
	_, err = service.CreateIntent(context.Background(), "order-2", "user-1")
	assert.ErrorIs(t, err, services.ErrOrderAlreadyPaid)

	// Cancelled orders cannot be paid
	cancelled := &models.Order{ID: "order-3", UserID: "user-1", Total: 10, Status: models.OrderCancelled}
	orderRepo.On("GetByID", "order-3").Return(cancelled, nil).Once()
	_, err = service.CreateIntent(context.Background(), "order-3", "user-1")
	assert.ErrorIs(t, err, services.ErrOrderNotPayable)

	gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	service := newPaymentServiceForTest(orderRepo, gateway)

	payload := []byte(`{"id":"evt_1"}`)

	// payment_intent.succeeded marks the order paid and moves it along
	gateway.On("VerifyWebhook", payload, "sig").
		Return(&payments.WebhookEvent{Type: "payment_intent.succeeded", IntentID: "pi_123", IntentStatus: "succeeded"}, nil).Once()
	pending := &models.Order{ID: "order-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(pending, nil).Once()
	orderRepo.On("SetPayment", "order-1", models.PaymentPaid, "").Return(nil).Once()
	orderRepo.On("UpdateStatus", "order-1", models.OrderProcessing).Return(nil).Once()

	assert.NoError(t, service.HandleWebhook(payload, "sig"))
	orderRepo.AssertExpectations(t)

	// payment_intent.payment_failed records the failure
	gateway.On("VerifyWebhook", payload, "sig").
		Return(&payments.WebhookEvent{Type: "payment_intent.payment_failed", IntentID: "pi_456"}, nil).Once()
	failed := &models.Order{ID: "order-2", Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	orderRepo.On("GetByPaymentIntentID", "pi_456").Return(failed, nil).Once()
	orderRepo.On("SetPayment", "order-2", models.PaymentFailed, "").Return(nil).Once()

	assert.NoError(t, service.HandleWebhook(payload, "sig"))
	orderRepo.AssertExpectations(t)

	// Unknown event types are acknowledged and ignored
	gateway.On("VerifyWebhook", payload, "sig").
		Return(&payments.WebhookEvent{Type: "charge.refunded"}, nil).Once()
	assert.NoError(t, service.HandleWebhook(payload, "sig"))

	// Events for unknown intents are acknowledged so the provider stops retrying
	gateway.On("VerifyWebhook", payload, "sig").
		Return(&payments.WebhookEvent{Type: "payment_intent.succeeded", IntentID: "pi_999"}, nil).Once()
	orderRepo.On("GetByPaymentIntentID", "pi_999").
		Return(nil, fmt.Errorf("order with payment intent pi_999: %w", repositories.ErrNotFound)).Once()
	assert.NoError(t, service.HandleWebhook(payload, "sig"))

	// A bad signature rejects the delivery
	gateway.On("VerifyWebhook", payload, "bad-sig").
		Return(nil, errors.New("webhook signature verification failed")).Once()
	assert.Error(t, service.HandleWebhook(payload, "bad-sig"))
	gateway.AssertExpectations(t)
}

func TestPaymentService_ConfirmFromClient(t *testing.T) {
	orderRepo := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	service := newPaymentServiceForTest(orderRepo, gateway)

	order := &models.Order{
		ID:              "order-1",
		UserID:          "user-1",
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentIntentID: "pi_123",
	}

	// The provider reports success: the order is marked paid
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	gateway.On("GetIntent", mock.Anything, "pi_123").
		Return(&payments.Intent{ID: "pi_123", Status: "succeeded"}, nil).Once()
	orderRepo.On("GetByPaymentIntentID", "pi_123").Return(order, nil).Once()
	orderRepo.On("SetPayment", "order-1", models.PaymentPaid, "").Return(nil).Once()
	orderRepo.On("UpdateStatus", "order-1", models.OrderProcessing).Return(nil).Once()

	status, err := service.ConfirmFromClient(context.Background(), "order-1", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, status)
	orderRepo.AssertExpectations(t)

	// The provider still shows the intent in progress: nothing changes
	orderRepo.On("GetByID", "order-1").Return(order, nil).Once()
	gateway.On("GetIntent", mock.Anything, "pi_123").
		Return(&payments.Intent{ID: "pi_123", Status: "requires_payment_method"}, nil).Once()

	status, err = service.ConfirmFromClient(context.Background(), "order-1", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentPending, status)

	// An order without an intent cannot be confirmed
	bare := &models.Order{ID: "order-2", UserID: "user-1"}
	orderRepo.On("GetByID", "order-2").Return(bare, nil).Once()
	_, err = service.ConfirmFromClient(context.Background(), "order-2", "user-1")
	assert.ErrorIs(t, err, services.ErrOrderNotPayable)

	gateway.AssertExpectations(t)
}
