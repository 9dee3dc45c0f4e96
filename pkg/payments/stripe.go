package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Intent is the subset of a hosted payment intent the storefront cares
// about.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string // e.g. "requires_payment_method", "succeeded"
	Amount       int64  // integer cents
}

// WebhookEvent is a verified event delivered by the payment provider.
// IntentID is set only for payment intent events.
type WebhookEvent struct {
	Type         string
	IntentID     string
	IntentStatus string
}

// StripeGateway talks to the Stripe API for payment intents and verifies
// incoming webhook signatures.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway from the account secret key and the
// webhook endpoint signing secret.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
	}
}

// CreateIntent creates a payment intent for the given amount in integer
// cents, tagged with the order ID so webhook consumers can correlate it.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency, orderID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent for order %s: %w", orderID, err)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}, nil
}

// GetIntent fetches the current state of a payment intent from Stripe.
// Client confirm callbacks go through this so we never trust client-reported
// payment state.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := g.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent %s: %w", id, err)
	}
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and decodes the event. Payment intent events carry the intent ID
// and status; other event types come back with just their type.
func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	we := &WebhookEvent{Type: string(event.Type)}
	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent from event %s: %w", event.ID, err)
		}
		we.IntentID = pi.ID
		we.IntentStatus = string(pi.Status)
	}
	return we, nil
}
