package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"catalog-resolver-service/internal/cache"
	"catalog-resolver-service/internal/clients"
	"catalog-resolver-service/internal/clients/ssactivewear"
	"catalog-resolver-service/internal/config"
	"catalog-resolver-service/internal/database"
	"catalog-resolver-service/internal/handlers"
	"catalog-resolver-service/internal/middleware"
	"catalog-resolver-service/internal/models"
	"catalog-resolver-service/internal/repository"
	"catalog-resolver-service/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models. The supplier_* tables are populated by the bulk
	// ingestion job and only read here.
	if err := db.AutoMigrate(
		&models.CanonicalStyle{},
		&models.SupplierLink{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductSize{},
		&models.MediaAsset{},
		&models.InventoryRow{},
	); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}

	// The TTL cache is an explicit instance with process lifetime: constructed
	// here, handed to the components that need it, gone at exit.
	ttlCache := cache.New()

	// Repositories
	styleRepo := repository.NewStyleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// Supplier clients
	remoteClient := ssactivewear.NewClient(ssactivewear.Config{
		BaseURL:   cfg.SSActivewearBaseURL,
		Account:   cfg.SSActivewearAccount,
		APIKey:    cfg.SSActivewearAPIKey,
		Timeout:   cfg.SSActivewearTimeout,
		RateLimit: cfg.SSActivewearRateLimit,
		CacheTTL:  cfg.ProductCacheTTL,
		RetryConfig: &clients.RetryConfig{
			MaxRetries:     cfg.RemoteMaxRetries,
			InitialBackoff: clients.DefaultRetryConfig().InitialBackoff,
			MaxBackoff:     clients.DefaultRetryConfig().MaxBackoff,
			BackoffFactor:  clients.DefaultRetryConfig().BackoffFactor,
			Jitter:         clients.DefaultRetryConfig().Jitter,
		},
	}, ttlCache, logger)
	primaryClient := clients.NewPrimaryClient(catalogRepo)
	supplierRegistry := clients.NewRegistry(primaryClient, remoteClient)

	// Services
	registryService := services.NewRegistryService(styleRepo, logger)
	searchService := services.NewSearchService(styleRepo, catalogRepo, supplierRegistry, ttlCache, cfg.StockCacheTTL, logger)
	detailService := services.NewDetailService(styleRepo, supplierRegistry, logger)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	searchHandler := handlers.NewSearchHandler(searchService)
	detailHandler := handlers.NewDetailHandler(detailService)
	linkHandler := handlers.NewLinkHandler(registryService)

	router := setupRouter(cfg, logger, healthHandler, searchHandler, detailHandler, linkHandler)

	logger.WithFields(logrus.Fields{
		"port":        cfg.Port,
		"environment": cfg.Environment,
	}).Info("Catalog Resolver Service starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	logger *logrus.Logger,
	healthHandler *handlers.HealthHandler,
	searchHandler *handlers.SearchHandler,
	detailHandler *handlers.DetailHandler,
	linkHandler *handlers.LinkHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestLogger(logger))

	// Health checks
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/search", searchHandler.Search)
			catalog.GET("/styles/:id", detailHandler.GetDetail)
			catalog.GET("/style-numbers/:styleNumber", linkHandler.GetStyleByNumber)
			catalog.POST("/links", linkHandler.EnsureLink)
			catalog.GET("/stats", linkHandler.Stats)
		}
	}

	return router
}
