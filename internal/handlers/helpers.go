package handlers

import (
	"errors"
	"fmt"

	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// errStatus maps service/repository errors to HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repositories.ErrInsufficientStock):
		return fiber.StatusBadRequest
	case errors.Is(err, repositories.ErrConflict),
		errors.Is(err, repositories.ErrNotCancellable),
		errors.Is(err, services.ErrOrderAlreadyPaid),
		errors.Is(err, services.ErrOrderNotPayable):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// errResponse writes a JSON error body with the mapped status code.
func errResponse(c *fiber.Ctx, message string, err error) error {
	return c.Status(errStatus(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// validationResponse writes a 400 with a per-field breakdown of validator
// failures.
func validationResponse(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// currentUserID returns the authenticated user's ID from the request
// context, or "" when the request is anonymous.
func currentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// cartIdentity resolves the cart key for a request: the authenticated user
// ID when present, otherwise the client-supplied X-Cart-ID header. Anonymous
// keys live in their own namespace so a crafted header can never address a
// user's cart.
func cartIdentity(c *fiber.Ctx) string {
	if id := currentUserID(c); id != "" {
		return id
	}
	if anonID := c.Get("X-Cart-ID"); anonID != "" {
		return "anon:" + anonID
	}
	return ""
}
