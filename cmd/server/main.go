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

	appcrm "github.com/devmatch/backend/internal/application/crm"
	"github.com/devmatch/backend/internal/infrastructure/cache"
	"github.com/devmatch/backend/internal/infrastructure/config"
	"github.com/devmatch/backend/internal/infrastructure/highlevel"
	"github.com/devmatch/backend/internal/infrastructure/logger"
	"github.com/devmatch/backend/internal/infrastructure/persistence"
	"github.com/devmatch/backend/internal/interfaces/http/handler"
	"github.com/devmatch/backend/internal/interfaces/http/middleware"
	"github.com/devmatch/backend/internal/interfaces/http/router"
)

// version is set at build time via -ldflags
var version = "dev"

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting DevMatch Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
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
	opportunityRepo := persistence.NewGormOpportunityRepository(db.DB)
	jobDraftRepo := persistence.NewGormJobDraftRepository(db.DB)
	credentialRepo := persistence.NewGormAuthCredentialRepository(db.DB)

	// Webhook deduplication store (Redis, or in-memory when Redis is disabled)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	dedupeStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := dedupeStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// CRM platform client and token lifecycle
	crmConfig := &highlevel.Config{
		ClientID:        cfg.CRM.ClientID,
		ClientSecret:    cfg.CRM.ClientSecret,
		RedirectURI:     cfg.CRM.RedirectURI,
		LocationID:      cfg.CRM.LocationID,
		PipelineID:      cfg.CRM.PipelineID,
		PipelineStageID: cfg.CRM.PipelineStageID,
		BaseURL:         cfg.CRM.BaseURL,
		APIVersion:      cfg.CRM.APIVersion,
		Timeout:         cfg.CRM.Timeout,
	}
	tokenManager, err := highlevel.NewTokenManager(crmConfig, credentialRepo, log)
	if err != nil {
		log.Fatal("Invalid CRM configuration", zap.Error(err))
	}
	if err := tokenManager.Bootstrap(context.Background()); err != nil {
		log.Fatal("Failed to load stored CRM credential", zap.Error(err))
	}
	platformClient, err := highlevel.NewClient(crmConfig, tokenManager, log)
	if err != nil {
		log.Fatal("Failed to create CRM client", zap.Error(err))
	}

	// Application services
	normalizer := appcrm.NewNormalizer(opportunityRepo, cfg.CRM.TrustWebhookEventType, log)
	syncService := appcrm.NewSyncService(opportunityRepo, log)
	webhookService := appcrm.NewWebhookService(normalizer, syncService, dedupeStore, cfg.Webhook.DedupeTTL, log)
	outboundService := appcrm.NewOutboundService(jobDraftRepo, platformClient, log)
	defer outboundService.Wait()

	// Sanity-check the configured pipeline stage, failure is logged not fatal
	outboundService.ValidatePipelineConfig(context.Background(), cfg.CRM.PipelineID, cfg.CRM.PipelineStageID)

	// Initialize HTTP handlers
	webhookHandler := handler.NewWebhookHandler(webhookService, log)
	jobHandler := handler.NewJobHandler(outboundService, log)
	oauthHandler := handler.NewOAuthHandler(tokenManager, log)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	if err := handler.RegisterJobValidators(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

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
	// 4. CORS - Handle cross-origin requests
	// 5. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint
	engine.GET("/health", healthHandler(db))

	// Register routes. Webhook and OAuth paths are unversioned, the CRM
	// calls them at the exact URLs registered with the provider.
	router.NewRouter(engine).
		Register(webhookHandler).
		Register(jobHandler).
		Register(oauthHandler).
		Register(systemHandler).
		Setup()

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

	// Let in-flight outbound CRM writes finish before connections close
	outboundService.Wait()

	log.Info("Server exited gracefully")
}

// healthHandler reports process and database health
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
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
