package handlers

import (
	"strconv"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// RegisterAdminRoutes registers the catalog management routes.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// queryFloat reads an optional float query parameter as a pointer.
func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// HandleListProducts lists catalog products with filtering, sorting and
// pagination: ?category=<slug>&condition=&min_price=&max_price=&q=&sort=&limit=&offset=
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := services.ProductListQuery{
		CategorySlug: c.Query("category"),
		Condition:    c.Query("condition"),
		MinPrice:     queryFloat(c, "min_price"),
		MaxPrice:     queryFloat(c, "max_price"),
		Search:       c.Query("q"),
		Sort:         c.Query("sort"),
		Limit:        limit,
		Offset:       c.QueryInt("offset", 0),
	}

	products, err := h.service.ListProducts(query)
	if err != nil {
		log.Error().Err(err).Msg("error listing products")
		return errResponse(c, "Could not retrieve products", err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		return errResponse(c, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new catalog product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if product.Condition == "" {
		product.Condition = models.ConditionNew
	}

	if err := h.validate.Struct(product); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.CreateProduct(&product); err != nil {
		log.Error().Err(err).Str("name", product.Name).Msg("error creating product")
		return errResponse(c, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing catalog product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")

	existing, err := h.service.GetProductByID(productID)
	if err != nil {
		return errResponse(c, "Could not retrieve product", err)
	}

	product := *existing
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = productID // path wins over any body value

	if err := h.validate.Struct(product); err != nil {
		return validationResponse(c, err)
	}

	if err := h.service.UpdateProduct(&product); err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("error updating product")
		return errResponse(c, "Could not update product", err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a catalog product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.service.DeleteProduct(productID); err != nil {
		if errStatus(err) == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("product_id", productID).Msg("error deleting product")
		}
		return errResponse(c, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}
