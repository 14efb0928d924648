package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arcadia-crm/quote-api/docs"
	"github.com/arcadia-crm/quote-api/internal/auth"
	"github.com/arcadia-crm/quote-api/internal/config"
	"github.com/arcadia-crm/quote-api/internal/database"
	"github.com/arcadia-crm/quote-api/internal/http/handler"
	"github.com/arcadia-crm/quote-api/internal/http/middleware"
	"github.com/arcadia-crm/quote-api/internal/http/router"
	"github.com/arcadia-crm/quote-api/internal/jobs"
	"github.com/arcadia-crm/quote-api/internal/logger"
	"github.com/arcadia-crm/quote-api/internal/repository"
	"github.com/arcadia-crm/quote-api/internal/service"
)

// @title Arcadia Quote API
// @version 1.0
// @description Quote pricing and lifecycle API with versioned history and opportunity linkage

// @contact.name API Support
// @contact.email support@arcadia-crm.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "quote-api-staging.arcadia-crm.io"
	case "production":
		docs.SwaggerInfo.Host = "api.arcadia-crm.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Repositories
	quoteRepo := repository.NewQuoteRepository(db)
	lineRepo := repository.NewQuoteLineRepository(db)
	versionRepo := repository.NewQuoteVersionRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)

	// Services
	versionService := service.NewQuoteVersionService(versionRepo, log)
	quoteService := service.NewQuoteService(db, quoteRepo, lineRepo, versionService, log)
	opportunityService := service.NewOpportunityService(opportunityRepo, log)
	lifecycleService := service.NewQuoteLifecycleService(quoteRepo, lineRepo, versionService, opportunityService, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	quoteHandler := handler.NewQuoteHandler(quoteService, log)
	lifecycleHandler := handler.NewQuoteLifecycleHandler(lifecycleService, log)
	versionHandler := handler.NewQuoteVersionHandler(versionService, log)
	opportunityHandler := handler.NewOpportunityHandler(opportunityService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		quoteHandler,
		lifecycleHandler,
		versionHandler,
		opportunityHandler,
	)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.ExpiryEnabled {
		scheduler = jobs.NewScheduler(log)
		expiryJob := jobs.NewExpiryJob(quoteRepo, lifecycleService, log, jobs.DefaultExpiryTimeout)
		if err := scheduler.AddJob(jobs.ExpiryJobName, cfg.Jobs.ExpirySchedule, expiryJob.Run); err != nil {
			log.Error("Failed to register expiry job", zap.Error(err))
		} else {
			scheduler.Start()
		}
	} else {
		log.Info("Quote expiry job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
