package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/pkg/payments"
	"storefront/pkg/rabbitmq"
)

const serviceName = "storefront"

// buildApp migrates the schema and wires repositories, services, handlers
// and middleware into a Fiber app. redisClient and publisher may be nil;
// carts then live in memory and order events are skipped.
func buildApp(
	cfg config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	publisher services.OrderEventPublisher,
	gateway services.PaymentGateway,
) (*fiber.App, *services.AuthService, error) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return nil, nil, err
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	var cartRepo repositories.CartRepository
	if redisClient != nil {
		cartRepo = repositories.NewRedisCartRepository(redisClient)
	} else {
		log.Warn().Msg("Redis not configured, carts will not survive restarts")
		cartRepo = repositories.NewMockCartRepository()
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	productService := services.NewProductService(productRepo, categoryRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, cartRepo, publisher,
		cfg.ShippingFlatFee, cfg.FreeShippingThreshold)
	paymentService := services.NewPaymentService(orderService, orderRepo, gateway)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	app := fiber.New()

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(fiberlogger.New()) // Request logger
	app.Use(metrics.Middleware(serviceName))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1)
	categoryHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterWebhookRoute(apiV1)

	// Cart works for both authenticated and anonymous shoppers
	cartHandler.RegisterRoutes(apiV1.Group("", middleware.OptionalAuth(authService)))

	// Authenticated routes
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	orderHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)

	// Admin console routes
	admin := apiV1.Group("/admin", middleware.AuthRequired(authService), middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	categoryHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)

	// --- Ops surface ---
	app.Get("/metrics", metrics.Handler())
	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		dbState := "connected"
		if sqlDB, err := db.DB(); err != nil || sqlDB.Ping() != nil {
			dbState = "unreachable"
			status = fiber.StatusServiceUnavailable
		}
		redisState := "not configured"
		if redisClient != nil {
			redisState = "connected"
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				redisState = "unreachable"
				status = fiber.StatusServiceUnavailable
			}
		}
		return c.Status(status).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbState,
			"redis":    redisState,
			"events":   publisher != nil,
		})
	})

	return app, authService, nil
}

func main() {
	cfg := config.Load()
	logger.Setup(serviceName, cfg.LogLevel)

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// --- Redis (cart store) ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, using in-memory cart store")
		redisClient = nil
	}
	cancel()

	// --- RabbitMQ ---
	var publisher services.OrderEventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Warn().Err(err).Msg("RabbitMQ unavailable, order events will not be published")
	} else {
		defer mqClient.Close()
		publisher = mqClient

		// Downstream order-event processing (fulfilment, notifications)
		// hangs off this consumer.
		if consumeErr := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Info().RawJSON("event", msg.Body).Msg("order event received")
			return nil
		}); consumeErr != nil {
			log.Warn().Err(consumeErr).Msg("failed to start order event consumer")
		}
	}

	// --- Stripe ---
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, payment intent creation will fail")
	}
	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	app, authService, err := buildApp(cfg, db, redisClient, publisher, gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build app")
	}

	if err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin user")
	}

	// --- Start HTTP Server ---
	log.Info().Str("port", cfg.AppPort).Msg("starting server")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during Fiber shutdown")
	}

	log.Info().Msg("server gracefully stopped")
}
