package routes

import (
	"context"
	"net/http"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/delivery/http/handler"
	"marketlive/internal/logger"
	"marketlive/internal/metrics"
	"marketlive/internal/middleware"

	"github.com/gin-gonic/gin"
)

const maxRequestSize = 10 << 20

// HealthChecker reports whether the primary store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Quote        *handler.QuoteHandler
	Booking      *handler.BookingHandler
	Shipment     *handler.ShipmentHandler
	Document     *handler.DocumentHandler
	Compliance   *handler.ComplianceHandler
	Payment      *handler.PaymentHandler
	User         *handler.UserHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
}

type Dependencies struct {
	DB       HealthChecker
	Metrics  *metrics.Metrics
	Roles    middleware.RoleResolver
	Handlers Handlers
	// Components are extra background status values shown on /health.
	Components map[string]func() interface{}
}

func SetupRoutes(cfg *config.Config, deps Dependencies) *gin.Engine {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order: recovery, request ID, logging, metrics, security headers, CORS, request size limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.Environment == "production"))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(maxRequestSize))

	router.GET("/health", healthHandler(deps))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := deps.Handlers
	requireAuth := middleware.AuthMiddleware(&cfg.JWT, deps.Roles)
	optionalAuth := middleware.OptionalAuthMiddleware(&cfg.JWT, deps.Roles)
	limit := middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)

	// Webhooks are authenticated by signature, not by bearer token.
	h.Payment.RegisterWebhook(router)
	h.User.RegisterWebhook(router)

	ws := router.Group("")
	ws.Use(requireAuth)
	h.Notification.RegisterStream(ws)

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(optionalAuth, limit)

		protected := v1.Group("")
		protected.Use(requireAuth, limit)

		admin := protected.Group("")
		admin.Use(middleware.AdminOnly())

		h.Quote.RegisterRoutes(public, protected)
		h.Booking.RegisterRoutes(public, protected, admin)
		h.Shipment.RegisterRoutes(public, protected, admin)
		h.Document.RegisterRoutes(public, protected)
		h.Compliance.RegisterRoutes(protected)
		h.Payment.RegisterRoutes(protected, admin)
		h.User.RegisterRoutes(protected)
		h.Notification.RegisterRoutes(protected)
		h.Admin.RegisterRoutes(admin)
	}

	logger.Info("All routes initialized")
	return router
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if deps.DB != nil {
			if err := deps.DB.Health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Database connection failed",
				})
				return
			}
		}

		components := gin.H{}
		for name, status := range deps.Components {
			components[name] = status()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"message":    "Service is running",
			"components": components,
		})
	}
}
