package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/piteam/pi_api/internal/cache"
	"github.com/piteam/pi_api/internal/config"
	"github.com/piteam/pi_api/internal/database"
	"github.com/piteam/pi_api/internal/handler"
	"github.com/piteam/pi_api/internal/middleware"
	"github.com/piteam/pi_api/internal/repository"
	"github.com/piteam/pi_api/internal/service"
)

// main is the application entrypoint for the PI directory API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting pi api")
	if cfg.Verification.ExposeCodes {
		log.Warn().Msg("DEBUG_EXPOSE_CODES is on - verification codes are echoed in API responses")
	}

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	subscriberCache := cache.NewSubscriberCache(redisClient)

	// 4. Initialize collaborators
	mediaSvc, err := service.NewMediaService(&cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("media storage initialization failed")
		fmt.Fprintf(os.Stderr, "media storage initialization failed: %v\n", err)
		os.Exit(1)
	}
	if err := mediaSvc.EnsureBucket(context.Background()); err != nil {
		log.Warn().Err(err).Msg("media bucket check failed - uploads may not work")
	}

	notifier := service.NewEmailNotifier(&cfg.SMTP)

	// 5. Initialize repositories
	subRepo := repository.NewSubscriptionRepository(db)
	listingRepo := repository.NewListingRepository(db)

	// 6. Initialize services
	subSvc := service.NewSubscriptionService(subRepo, notifier, subscriberCache, &cfg.Verification)
	listingSvc := service.NewListingService(listingRepo)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(),
		Subscription: handler.NewSubscriptionHandler(subSvc, mediaSvc, cfg.Verification.ExposeCodes),
		Listing:      handler.NewListingHandler(listingSvc),
		Upload:       handler.NewUploadHandler(mediaSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	router.MaxMultipartMemory = 50 << 20
	setupRoutes(router, handlers)

	// 9. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 11. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Subscription *handler.SubscriptionHandler
	Listing      *handler.ListingHandler
	Upload       *handler.UploadHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	router.GET("/health", handlers.Health.GetHealth)

	api := router.Group("/api")
	{
		subscription := api.Group("/subscription")
		{
			subscription.POST("/submit", handlers.Subscription.Submit)
			subscription.POST("/verify", handlers.Subscription.Verify)
			subscription.POST("/resend-code", handlers.Subscription.ResendCode)
			subscription.GET("/:id", handlers.Subscription.GetByID)
		}

		api.GET("/user/current", handlers.Subscription.GetCurrent)

		api.GET("/listings", handlers.Listing.List)
		api.POST("/listings", handlers.Listing.Create)

		api.POST("/upload", handlers.Upload.Upload)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
