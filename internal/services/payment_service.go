package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/payments"

	"github.com/rs/zerolog/log"
)

// PaymentGateway abstracts the hosted payment provider (Stripe in
// production) so the service can be tested with mocks.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, orderID string) (*payments.Intent, error)
	GetIntent(ctx context.Context, id string) (*payments.Intent, error)
	VerifyWebhook(payload []byte, sigHeader string) (*payments.WebhookEvent, error)
}

// Payment errors surfaced to handlers.
var (
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderNotPayable  = errors.New("order cannot be paid in its current state")
)

// PaymentService creates payment intents for orders and applies confirmed
// payment outcomes, whether they arrive by webhook or client callback.
type PaymentService struct {
	orders    *OrderService
	orderRepo repositories.OrderRepository
	gateway   PaymentGateway
	currency  string
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(orders *OrderService, orderRepo repositories.OrderRepository, gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		orders:    orders,
		orderRepo: orderRepo,
		gateway:   gateway,
		currency:  "usd",
	}
}

// CreateIntent creates a payment intent for the user's own pending order
// and records the intent reference on it. The returned intent carries the
// client secret the browser needs to complete the charge.
func (s *PaymentService) CreateIntent(ctx context.Context, orderID, userID string) (*payments.Intent, error) {
	order, err := s.orders.GetOrderForUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderAlreadyPaid)
	}
	if order.Status == models.OrderCancelled {
		return nil, fmt.Errorf("order %s is cancelled: %w", orderID, ErrOrderNotPayable)
	}

	amountCents := int64(math.Round(order.Total * 100))
	intent, err := s.gateway.CreateIntent(ctx, amountCents, s.currency, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SetPayment(orderID, models.PaymentPending, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to record payment intent on order %s: %w", orderID, err)
	}
	return intent, nil
}

// HandleWebhook verifies and applies a provider webhook delivery. Unknown
// event types and events for unknown intents are acknowledged and ignored
// so the provider does not retry them forever.
func (s *PaymentService) HandleWebhook(payload []byte, sigHeader string) error {
	event, err := s.gateway.VerifyWebhook(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = s.orders.MarkPaymentSucceeded(event.IntentID)
	case "payment_intent.payment_failed":
		err = s.orders.MarkPaymentFailed(event.IntentID)
	default:
		log.Debug().Str("type", event.Type).Msg("ignoring webhook event")
		return nil
	}

	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("intent_id", event.IntentID).Str("type", event.Type).
				Msg("webhook references unknown payment intent")
			return nil
		}
		return err
	}
	return nil
}

// ConfirmFromClient re-fetches the order's payment intent from the provider
// and applies its actual status. The client callback is never trusted
// directly; only what the provider reports counts.
func (s *PaymentService) ConfirmFromClient(ctx context.Context, orderID, userID string) (models.PaymentStatus, error) {
	order, err := s.orders.GetOrderForUser(orderID, userID)
	if err != nil {
		return "", err
	}
	if order.PaymentIntentID == "" {
		return "", fmt.Errorf("order %s has no payment intent: %w", orderID, ErrOrderNotPayable)
	}

	intent, err := s.gateway.GetIntent(ctx, order.PaymentIntentID)
	if err != nil {
		return "", err
	}

	switch intent.Status {
	case "succeeded":
		if err := s.orders.MarkPaymentSucceeded(intent.ID); err != nil {
			return "", err
		}
		return models.PaymentPaid, nil
	case "canceled":
		if err := s.orders.MarkPaymentFailed(intent.ID); err != nil {
			return "", err
		}
		return models.PaymentFailed, nil
	default:
		// still in progress on the provider side
		return order.PaymentStatus, nil
	}
}
