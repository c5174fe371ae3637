package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/xdecor-api/config"
	"github.com/kendall-kelly/xdecor-api/events"
	"github.com/kendall-kelly/xdecor-api/metrics"
	"github.com/kendall-kelly/xdecor-api/middleware"
	"github.com/kendall-kelly/xdecor-api/models"
	"github.com/kendall-kelly/xdecor-api/routes"
	"github.com/kendall-kelly/xdecor-api/services"
	"github.com/kendall-kelly/xdecor-api/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const lockTTL = 10 * time.Second

func main() {
	// Basic logging
	log.Println("Starting xdecor API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	metrics.Register()

	reg, cleanup, err := buildRegistry(context.Background(), cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer cleanup()

	router := setupRouter(cfg, reg, middleware.EnsureValidToken(cfg))

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildRegistry wires the domain services to the collaborators named by cfg.
// Unconfigured collaborators fall back to in-process implementations.
func buildRegistry(ctx context.Context, cfg *config.Config, db *gorm.DB) (*services.Registry, func(), error) {
	deps := services.Dependencies{
		DB:       db,
		Currency: cfg.PaymentCurrency,
	}
	var closers []func()

	if cfg.RedisAddr != "" {
		client := services.NewRedisClient(cfg)
		if err := services.PingRedis(ctx, client); err != nil {
			return nil, nil, err
		}
		deps.Locker = services.NewRedisLocker(client, lockTTL)
		closers = append(closers, func() { _ = client.Close() })
		log.Printf("Using Redis booking locks at %s", cfg.RedisAddr)
	} else {
		deps.Locker = services.NewLocalLocker()
		log.Println("REDIS_ADDR not set, using in-process booking locks")
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, nil, err
		}
		deps.Publisher = publisher
		closers = append(closers, func() { _ = publisher.Close() })
		log.Printf("Publishing booking events to exchange %s", cfg.RabbitMQExchange)
	} else {
		deps.Publisher = events.NopPublisher{}
	}

	if cfg.StripeSecretKey != "" {
		deps.Gateway = services.NewStripeGateway(cfg.StripeSecretKey, cfg.FrontendBaseURL)
	} else {
		gateway := services.NewMockPaymentGateway()
		gateway.AutoPay = true
		deps.Gateway = gateway
		log.Println("STRIPE_SECRET_KEY not set, using the auto-paying test gateway")
	}

	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		deps.Images = services.NewS3ImageService(s3Service)
	} else {
		deps.Images = services.NewLocalImageService(utils.UploadDir)
		log.Printf("AWS_S3_BUCKET not set, storing images in %s", utils.UploadDir)
	}

	if cfg.UsesIdentityProvider() {
		deps.Identity = services.NewIdentityService(cfg.IssuerURL())
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return services.InitRegistry(deps), cleanup, nil
}

// setupRouter builds the HTTP router with the ops endpoints and the marketplace API
func setupRouter(cfg *config.Config, reg *services.Registry, authMiddleware gin.HandlerFunc) *gin.Engine {
	if strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.DebugMode)
	} else if !cfg.IsTest() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)
	}
	routes.Setup(v1, authMiddleware, reg.Users)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "xdecor API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not connected",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
