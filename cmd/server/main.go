package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	returnapp "github.com/retailbill/backend/internal/application/returns"
	"github.com/retailbill/backend/internal/domain/returns"
	"github.com/retailbill/backend/internal/domain/shared"
	"github.com/retailbill/backend/internal/infrastructure/auth"
	"github.com/retailbill/backend/internal/infrastructure/cache"
	"github.com/retailbill/backend/internal/infrastructure/config"
	"github.com/retailbill/backend/internal/infrastructure/event"
	"github.com/retailbill/backend/internal/infrastructure/integration"
	"github.com/retailbill/backend/internal/infrastructure/logger"
	"github.com/retailbill/backend/internal/infrastructure/persistence"
	"github.com/retailbill/backend/internal/interfaces/http/handler"
	"github.com/retailbill/backend/internal/interfaces/http/middleware"
	"github.com/retailbill/backend/internal/interfaces/http/router"
)

//	@title			RetailBill Returns API
//	@version		1.0
//	@description	Sales return and refund settlement service for GST retail billing

//	@contact.name	API Support
//	@contact.url	https://github.com/retailbill/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting RetailBill Returns Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	salesReturnRepo := persistence.NewGormSalesReturnRepository(db.DB)
	approvalRepo := persistence.NewGormReturnApprovalRepository(db.DB)

	// Idempotency store for settlement side effects. Redis keeps
	// processed keys shared across instances; a single-node deployment
	// can run on the in-memory store.
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	var idemStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		idemStore, err = storeFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
	} else {
		idemStore = storeFactory.CreateInMemoryStore()
	}

	// Outbound integration clients. Left nil when unconfigured, in
	// which case points refunds fail as retryable settlement errors
	// and restocking is skipped.
	var pointsLedger returns.PointsLedger
	if cfg.Settlement.LoyaltyBaseURL != "" {
		loyaltyClient, err := integration.NewLoyaltyClient(cfg.Settlement.LoyaltyBaseURL, cfg.Settlement.CallTimeout, log)
		if err != nil {
			log.Fatal("Failed to create loyalty client", zap.Error(err))
		}
		pointsLedger = loyaltyClient
		log.Info("Loyalty client configured", zap.String("base_url", cfg.Settlement.LoyaltyBaseURL))
	}

	var restocker returns.StockRestocker
	if cfg.Settlement.AutoRestockEnabled && cfg.Settlement.InventoryBaseURL != "" {
		inventoryClient, err := integration.NewInventoryClient(cfg.Settlement.InventoryBaseURL, cfg.Settlement.CallTimeout, log)
		if err != nil {
			log.Fatal("Failed to create inventory client", zap.Error(err))
		}
		restocker = inventoryClient
		log.Info("Inventory client configured", zap.String("base_url", cfg.Settlement.InventoryBaseURL))
	}

	settlementEngine := returnapp.NewRefundSettlementEngine(
		pointsLedger,
		restocker,
		idemStore,
		shared.IdempotencyConfig{
			TTL:     cfg.Settlement.IdempotencyTTL,
			Enabled: cfg.Settlement.IdempotencyEnabled,
		},
		log,
	)

	// Permission checker for lifecycle transitions
	var permissionChecker returns.PermissionChecker
	if cfg.App.EnforcePermissions {
		permissionChecker = integration.NewClaimsPermissionChecker()
	} else {
		permissionChecker = integration.NewAllowAllPermissionChecker()
	}

	// Application service
	salesReturnService := returnapp.NewSalesReturnService(
		salesReturnRepo,
		approvalRepo,
		permissionChecker,
		settlementEngine,
		log,
	)

	// Identity services. The blacklist follows the idempotency store:
	// Redis when available so revocations reach every instance.
	jwtService := auth.NewJWTService(cfg.JWT)
	var tokenBlacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to create token blacklist", zap.Error(err))
		}
		defer func() {
			if err := redisBlacklist.Close(); err != nil {
				log.Error("Error closing token blacklist", zap.Error(err))
			}
		}()
		tokenBlacklist = redisBlacklist
	} else {
		tokenBlacklist = auth.NewInMemoryTokenBlacklist()
	}

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Handlers share the settlement idempotency store, so a retried
	// cancellation does not release stock twice.
	returnCancelledHandler := event.NewIdempotentHandler(
		returnapp.NewReturnCancelledHandler(log), idemStore, log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			Enabled: cfg.Settlement.IdempotencyEnabled,
			TTL:     cfg.Settlement.IdempotencyTTL,
		}))
	eventBus.Subscribe(returnCancelledHandler)

	log.Info("Event handlers registered",
		zap.Strings("return_cancelled_events", returnCancelledHandler.EventTypes()),
	)

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	salesReturnService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	salesReturnHandler := handler.NewSalesReturnHandler(salesReturnService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Authentication. Production requires a valid token on every API
	// route; development accepts anonymous requests so counter
	// terminals can be tested with the X-Tenant-ID / X-User-ID headers.
	if cfg.App.Env == "production" {
		jwtConfig := middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: tokenBlacklist,
			SkipPaths: []string{
				"/api/v1/ping",
			},
			Logger: log,
		}
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
		r.Use(middleware.TenantMiddleware())
	} else {
		r.Use(middleware.OptionalJWTAuthMiddleware(jwtService))
		r.Use(middleware.OptionalTenantMiddleware())
	}

	// Per-route permission guard, enforced only when RBAC is on
	var guard router.PermissionGuard
	if cfg.App.EnforcePermissions {
		guard = middleware.RequirePermission
	}

	r.Register(router.SalesReturns(salesReturnHandler, guard))
	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		resp := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			resp["pool"] = gin.H{
				"open":   stats.OpenConnections,
				"in_use": stats.InUse,
				"idle":   stats.Idle,
				"max":    stats.MaxOpenConnections,
				"waits":  stats.WaitCount,
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
