package handlers

import (
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the customer-facing order routes. These run
// behind AuthRequired.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOwnOrders)
	orderRoutes.Get("/:id", h.HandleGetOwnOrderByID)
	orderRoutes.Post("/", h.HandleCheckout)
}

// RegisterAdminRoutes registers the order management routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Patch("/:id/status", h.HandleUpdateOrderStatus)
}

// HandleGetOwnOrders lists the authenticated user's orders.
func (h *OrderHandler) HandleGetOwnOrders(c *fiber.Ctx) error {
	userID := currentUserID(c)
	orders, err := h.service.ListOrdersForUser(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("error listing orders")
		return errResponse(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOwnOrderByID retrieves one of the authenticated user's orders.
func (h *OrderHandler) HandleGetOwnOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderForUser(orderID, currentUserID(c))
	if err != nil {
		return errResponse(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCheckout creates a new order from explicit items or from the
// user's stored cart.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	userID := currentUserID(c)
	order, err := h.service.Checkout(c.Context(), userID, req)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("checkout failed")
		status := errStatus(err)
		if status == fiber.StatusInternalServerError && len(req.Items) == 0 {
			// empty-cart checkout is a client error, not a server fault
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"message": "Could not create order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders lists all orders, optionally filtered by status. Admin
// only.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	status := models.OrderStatus(c.Query("status"))
	limit := c.QueryInt("limit", 100)
	offset := c.QueryInt("offset", 0)

	orders, err := h.service.ListOrders(status, limit, offset)
	if err != nil {
		if errStatus(err) == fiber.StatusInternalServerError && status != "" && !models.ValidOrderStatus(status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid status filter",
				"error":   err.Error(),
			})
		}
		log.Error().Err(err).Msg("error listing all orders")
		return errResponse(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves any order. Admin only.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(orderID)
	if err != nil {
		return errResponse(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// UpdateOrderStatusRequest is the request body for setting an order's
// status label.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// HandleUpdateOrderStatus sets the status of an order. Admin only.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.UpdateOrderStatus(orderID, models.OrderStatus(req.Status)); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Str("status", req.Status).
			Msg("error updating order status")
		return errResponse(c, "Could not update order status", err)
	}

	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"id":      orderID,
		"status":  req.Status,
	})
}
