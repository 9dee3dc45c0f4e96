package handlers

import (
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CartHandler handles HTTP requests for shopping carts. The cart identity
// is the authenticated user, or the X-Cart-ID header for anonymous
// shoppers.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Put("/items/:productID", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:productID", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClearCart)
}

// requireCartID resolves the cart identity or fails the request.
func requireCartID(c *fiber.Ctx) (string, error) {
	cartID := cartIdentity(c)
	if cartID == "" {
		return "", c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Provide a bearer token or an X-Cart-ID header",
		})
	}
	return cartID, nil
}

// HandleGetCart returns the cart with product data and a running subtotal.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cartID, err := requireCartID(c)
	if cartID == "" {
		return err
	}

	cart, err := h.service.GetCart(c.Context(), cartID)
	if err != nil {
		log.Error().Err(err).Str("cart_id", cartID).Msg("error reading cart")
		return errResponse(c, "Could not retrieve cart", err)
	}
	return c.JSON(cart)
}

// CartItemRequest is the request body for adding or updating a cart line.
type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// HandleAddItem adds a product to the cart, merging quantities with any
// existing line.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	cartID, err := requireCartID(c)
	if cartID == "" {
		return err
	}

	var req CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.AddItem(c.Context(), cartID, req.ProductID, req.Quantity); err != nil {
		return errResponse(c, "Could not add item to cart", err)
	}

	cart, err := h.service.GetCart(c.Context(), cartID)
	if err != nil {
		return errResponse(c, "Could not retrieve cart", err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

// UpdateCartItemRequest is the request body for setting a line quantity.
// Zero removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// HandleUpdateItem sets the quantity of a cart line.
func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	cartID, err := requireCartID(c)
	if cartID == "" {
		return err
	}
	productID := c.Params("productID")

	var req UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.UpdateItem(c.Context(), cartID, productID, req.Quantity); err != nil {
		return errResponse(c, "Could not update cart item", err)
	}

	cart, err := h.service.GetCart(c.Context(), cartID)
	if err != nil {
		return errResponse(c, "Could not retrieve cart", err)
	}
	return c.JSON(cart)
}

// HandleRemoveItem drops a product line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cartID, err := requireCartID(c)
	if cartID == "" {
		return err
	}
	productID := c.Params("productID")

	if err := h.service.RemoveItem(c.Context(), cartID, productID); err != nil {
		return errResponse(c, "Could not remove cart item", err)
	}
	return c.JSON(fiber.Map{
		"message": "Item removed from cart",
	})
}

// HandleClearCart empties the cart.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	cartID, err := requireCartID(c)
	if cartID == "" {
		return err
	}

	if err := h.service.ClearCart(c.Context(), cartID); err != nil {
		return errResponse(c, "Could not clear cart", err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart cleared",
	})
}
