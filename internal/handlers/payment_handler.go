package handlers

import (
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// PaymentHandler handles HTTP requests for the payment flow.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the customer-facing payment routes. These run
// behind AuthRequired.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/orders/:id/intent", h.HandleCreateIntent)
	paymentRoutes.Post("/confirm", h.HandleConfirm)
}

// RegisterWebhookRoute registers the provider webhook endpoint. It is
// public; authenticity comes from the signature header.
func (h *PaymentHandler) RegisterWebhookRoute(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// HandleCreateIntent creates a payment intent for one of the user's orders
// and returns the client secret needed to complete the charge in the
// browser.
func (h *PaymentHandler) HandleCreateIntent(c *fiber.Ctx) error {
	orderID := c.Params("id")
	userID := currentUserID(c)

	intent, err := h.service.CreateIntent(c.Context(), orderID, userID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("error creating payment intent")
		return errResponse(c, "Could not create payment intent", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
		"amount":            intent.Amount,
	})
}

// ConfirmPaymentRequest is the request body for the client confirm
// callback.
type ConfirmPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleConfirm applies the provider-reported state of an order's payment
// intent. Called by the storefront after the browser payment flow settles.
func (h *PaymentHandler) HandleConfirm(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	status, err := h.service.ConfirmFromClient(c.Context(), req.OrderID, currentUserID(c))
	if err != nil {
		log.Warn().Err(err).Str("order_id", req.OrderID).Msg("error confirming payment")
		return errResponse(c, "Could not confirm payment", err)
	}

	return c.JSON(fiber.Map{
		"order_id":       req.OrderID,
		"payment_status": status,
	})
}

// HandleWebhook receives provider webhook deliveries. The raw body and the
// Stripe-Signature header go to the service for verification.
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	if err := h.service.HandleWebhook(c.Body(), c.Get("Stripe-Signature")); err != nil {
		log.Warn().Err(err).Msg("webhook rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Webhook rejected",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"received": true,
	})
}
