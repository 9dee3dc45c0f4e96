package handlers

import (
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles HTTP requests for product categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public category routes with the Fiber app.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/:slug", h.HandleGetCategoryBySlug)
}

// RegisterAdminRoutes registers the category management routes.
func (h *CategoryHandler) RegisterAdminRoutes(router fiber.Router) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

// HandleGetCategories lists all categories.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories()
	if err != nil {
		log.Error().Err(err).Msg("error listing categories")
		return errResponse(c, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

// HandleGetCategoryBySlug retrieves a single category by its slug.
func (h *CategoryHandler) HandleGetCategoryBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	category, err := h.service.GetCategoryBySlug(slug)
	if err != nil {
		return errResponse(c, "Could not retrieve category", err)
	}
	return c.JSON(category)
}

// HandleCreateCategory creates a new category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(category); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.CreateCategory(&category); err != nil {
		log.Error().Err(err).Str("name", category.Name).Msg("error creating category")
		return errResponse(c, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory updates an existing category.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")

	var category models.Category
	if err := c.BodyParser(&category); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	category.ID = categoryID

	if err := h.validate.Struct(category); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.UpdateCategory(&category); err != nil {
		log.Error().Err(err).Str("category_id", categoryID).Msg("error updating category")
		return errResponse(c, "Could not update category", err)
	}
	return c.JSON(category)
}

// HandleDeleteCategory deletes a category.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	categoryID := c.Params("id")
	if err := h.service.DeleteCategory(categoryID); err != nil {
		return errResponse(c, "Could not delete category", err)
	}
	return c.JSON(fiber.Map{
		"message": "Category deleted successfully",
	})
}
