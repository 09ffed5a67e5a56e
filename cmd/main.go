package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"storefront-ops-service/internal/clients"
	"storefront-ops-service/internal/config"
	"storefront-ops-service/internal/events"
	"storefront-ops-service/internal/handlers"
	"storefront-ops-service/internal/importer"
	"storefront-ops-service/internal/middleware"
	"storefront-ops-service/internal/repository"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

// @title Storefront Operations API
// @version 1.0.0
// @description Multi-tenant storefront operations dashboard backend with CSV product import
// @termsOfService http://swagger.io/terms/

// @contact.name Storefront Ops API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8088
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	// Set Redis password from GCP Secret Manager
	redisOpts.Password = secrets.GetRedisPassword()
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	storesRepo := repository.NewStoresRepository(db)
	ordersRepo := repository.NewOrdersRepository(db)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	natsURL := os.Getenv("NATS_URL")
	if natsURL != "" {
		var err error
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize clients
	identityClient := clients.NewIdentityClient()

	// Initialize import pipeline
	productImporter := importer.New(productsRepo, logger)

	// Initialize handlers with event publisher (may be nil if NATS not configured)
	productsHandler := handlers.NewProductsHandler(productsRepo, eventsPublisher)
	importHandler := handlers.NewImportHandler(productImporter, eventsPublisher)
	storesHandler := handlers.NewStoresHandler(storesRepo)
	ordersHandler := handlers.NewOrdersHandler(ordersRepo)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("storefront-ops-service"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("storefront-ops-service"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("storefront", "ops_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("storefront-ops-service"))
	router.Use(gosharedmw.CompressionMiddleware())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	// Protected API routes
	api := router.Group("/api/v1")

	// Istio may have already validated the JWT at the mesh edge; when it has,
	// IstioAuth populates user context from the claim headers and AuthRequired
	// passes through. Otherwise AuthRequired verifies the bearer token against
	// the identity-service.
	istioAuthLogger := logrus.NewEntry(logger).WithField("component", "istio_auth")
	api.Use(gosharedmw.IstioAuth(gosharedmw.IstioAuthConfig{
		RequireAuth:        false,
		AllowLegacyHeaders: true,
		Logger:             istioAuthLogger,
	}))
	api.Use(middleware.AuthRequired(identityClient))

	v1 := api.Group("")
	{
		stores := v1.Group("/stores")
		{
			stores.GET("", storesHandler.ListMyStores)

			store := stores.Group("/:storeId")
			store.Use(middleware.StoreAccess(storesRepo))
			{
				store.GET("", storesHandler.GetStore)

				products := store.Group("/products")
				{
					products.GET("", productsHandler.ListProducts)
					products.GET("/categories", productsHandler.GetCategories)
					products.GET("/export", productsHandler.ExportProducts)
					products.GET("/import/template", importHandler.GetImportTemplate)
					products.GET("/:id", productsHandler.GetProduct)

					write := products.Group("", middleware.RequireWriteAccess())
					{
						write.POST("", productsHandler.CreateProduct)
						write.POST("/import", importHandler.ImportProducts)
						write.PUT("/:id", productsHandler.UpdateProduct)
						write.DELETE("/:id", productsHandler.DeleteProduct)
					}
				}

				orders := store.Group("/orders")
				{
					orders.GET("", ordersHandler.ListOrders)
					orders.GET("/:id", ordersHandler.GetOrder)
					orders.PUT("/:id/status", middleware.RequireWriteAccess(), ordersHandler.UpdateOrderStatus)
				}
			}
		}

		// Flat import surface used by the dashboard upload widget: the target
		// store comes from the store_id query param, defaulting to the
		// caller's first membership
		flat := v1.Group("/products")
		flat.Use(middleware.StoreFromQuery(storesRepo))
		{
			flat.GET("/import/template", importHandler.GetImportTemplate)
			flat.POST("/import", middleware.RequireWriteAccess(), importHandler.ImportProducts)
		}

		// Platform admin surface
		admin := v1.Group("/admin")
		admin.Use(middleware.RequireSuperAdmin())
		{
			admin.GET("/stores", storesHandler.AdminListStores)
			admin.PUT("/stores/:storeId/subscription", storesHandler.AdminUpdateSubscription)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server
	port := cfg.Port

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Storefront ops service starting on port %s", port)
		if err := router.Run(":" + port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down storefront-ops-service...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Storefront ops service stopped")
}
