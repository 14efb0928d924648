package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arcadia-crm/quote-api/internal/auth"
	"github.com/arcadia-crm/quote-api/internal/config"
	"github.com/arcadia-crm/quote-api/internal/database"
	"github.com/arcadia-crm/quote-api/internal/http/handler"
	"github.com/arcadia-crm/quote-api/internal/http/middleware"

	_ "github.com/arcadia-crm/quote-api/docs" // Generated swagger docs
)

type Router struct {
	cfg                *config.Config
	logger             *zap.Logger
	db                 *gorm.DB
	authMiddleware     *auth.Middleware
	rateLimiter        *middleware.RateLimiter
	quoteHandler       *handler.QuoteHandler
	lifecycleHandler   *handler.QuoteLifecycleHandler
	versionHandler     *handler.QuoteVersionHandler
	opportunityHandler *handler.OpportunityHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	quoteHandler *handler.QuoteHandler,
	lifecycleHandler *handler.QuoteLifecycleHandler,
	versionHandler *handler.QuoteVersionHandler,
	opportunityHandler *handler.OpportunityHandler,
) *Router {
	return &Router{
		cfg:                cfg,
		logger:             logger,
		db:                 db,
		authMiddleware:     authMiddleware,
		rateLimiter:        rateLimiter,
		quoteHandler:       quoteHandler,
		lifecycleHandler:   lifecycleHandler,
		versionHandler:     versionHandler,
		opportunityHandler: opportunityHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness probe, checks the database connection
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("database health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": map[string]string{"database": err.Error()},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "healthy",
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Quotes
			r.Route("/quotes", func(r chi.Router) {
				r.Get("/", rt.quoteHandler.List)
				r.Post("/", rt.quoteHandler.Create)
				r.Get("/search", rt.quoteHandler.Search)
				r.Get("/{id}", rt.quoteHandler.GetByID)
				r.Put("/{id}", rt.quoteHandler.Update)
				r.Delete("/{id}", rt.quoteHandler.Delete)
				r.Get("/{id}/totals", rt.quoteHandler.GetTotals)

				// Lines
				r.Post("/{id}/lines", rt.quoteHandler.AddLine)
				r.Put("/{id}/lines/{lineId}", rt.quoteHandler.UpdateLine)
				r.Delete("/{id}/lines/{lineId}", rt.quoteHandler.DeleteLine)
				r.Post("/{id}/lines/bulk-delete", rt.quoteHandler.BulkDeleteLines)
				r.Post("/{id}/lines/bulk-discount", rt.quoteHandler.BulkApplyDiscount)

				// Lifecycle
				r.Post("/{id}/activate", rt.lifecycleHandler.Activate)
				r.Post("/{id}/win", rt.lifecycleHandler.Win)
				r.Post("/{id}/lose", rt.lifecycleHandler.Lose)
				r.Post("/{id}/cancel", rt.lifecycleHandler.Cancel)
				r.Post("/{id}/revise", rt.lifecycleHandler.Revise)

				// Versions
				r.Get("/{id}/versions", rt.versionHandler.ListByQuote)
				r.Get("/{id}/versions/compare", rt.versionHandler.Compare)
				r.Get("/{id}/versions/{versionId}", rt.versionHandler.GetByID)
			})

			// Opportunities
			r.Route("/opportunities", func(r chi.Router) {
				r.Get("/", rt.opportunityHandler.List)
				r.Post("/", rt.opportunityHandler.Create)
				r.Get("/{id}", rt.opportunityHandler.GetByID)
			})
		})
	})

	return r
}
