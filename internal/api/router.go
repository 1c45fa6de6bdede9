package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pixelprint/storefront/internal/api/handlers"
	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/logging"
	"github.com/pixelprint/storefront/internal/metrics"
)

type Router struct {
	engine            *gin.Engine
	log               logrus.FieldLogger
	authMiddleware    *middleware.AuthMiddleware
	rateLimiter       *middleware.RateLimiter
	healthHandler     *handlers.HealthHandler
	catalogHandler    *handlers.CatalogHandler
	wizardHandler     *handlers.WizardHandler
	productHandler    *handlers.ProductHandler
	imageHandler      *handlers.ImageHandler
	generationHandler *handlers.GenerationHandler
	creditsHandler    *handlers.CreditsHandler
}

func NewRouter(
	log logrus.FieldLogger,
	verifier *auth.Verifier,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handlers.HealthHandler,
	catalogHandler *handlers.CatalogHandler,
	wizardHandler *handlers.WizardHandler,
	productHandler *handlers.ProductHandler,
	imageHandler *handlers.ImageHandler,
	generationHandler *handlers.GenerationHandler,
	creditsHandler *handlers.CreditsHandler,
) *Router {
	return &Router{
		log:               log,
		authMiddleware:    middleware.NewAuthMiddleware(verifier),
		rateLimiter:       rateLimiter,
		healthHandler:     healthHandler,
		catalogHandler:    catalogHandler,
		wizardHandler:     wizardHandler,
		productHandler:    productHandler,
		imageHandler:      imageHandler,
		generationHandler: generationHandler,
		creditsHandler:    creditsHandler,
	}
}

func (r *Router) Setup(mode string) *gin.Engine {
	gin.SetMode(mode)
	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(logging.RequestLogger(r.log))
	r.engine.Use(metrics.Middleware())
	r.engine.Use(middleware.AuditMiddleware(r.log))

	r.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.setupRoutes()
	return r.engine
}

func (r *Router) setupRoutes() {
	api := r.engine.Group("/api")

	api.GET("/health", r.healthHandler.Check)

	// Everything below sees a session, anonymous when no token was sent.
	open := api.Group("")
	open.Use(r.authMiddleware.Authenticate())
	if r.rateLimiter != nil {
		open.Use(r.rateLimiter.Middleware())
	}

	catalog := open.Group("/catalog")
	{
		catalog.GET("/blueprints", r.catalogHandler.ListBlueprints)
		catalog.GET("/blueprints/:blueprintId/providers", r.catalogHandler.ListProviders)
		catalog.GET("/blueprints/:blueprintId/providers/:providerId/variants", r.catalogHandler.ListVariants)
	}

	sessions := open.Group("/wizard/sessions")
	{
		sessions.POST("", r.wizardHandler.Start)
		sessions.GET("/:sessionId", r.wizardHandler.Get)
		sessions.DELETE("/:sessionId", r.wizardHandler.Cancel)
		sessions.POST("/:sessionId/blueprints/reload", r.wizardHandler.ReloadBlueprints)
		sessions.PUT("/:sessionId/blueprint", r.wizardHandler.SelectBlueprint)
		sessions.POST("/:sessionId/providers/reload", r.wizardHandler.ReloadProviders)
		sessions.PUT("/:sessionId/provider", r.wizardHandler.SelectProvider)
		sessions.POST("/:sessionId/variants/reload", r.wizardHandler.ReloadVariants)
		sessions.POST("/:sessionId/colors/toggle", r.wizardHandler.ToggleColor)
		sessions.POST("/:sessionId/variants/:variantId/toggle", r.wizardHandler.ToggleVariant)
		sessions.PUT("/:sessionId/details", r.wizardHandler.SetDetails)
		sessions.POST("/:sessionId/submit", r.wizardHandler.Submit)
	}

	open.POST("/products", r.productHandler.Create)
	open.GET("/credits/packages", r.creditsHandler.Packages)

	// Storefront-owned per-user data
	owned := open.Group("")
	owned.Use(r.authMiddleware.RequireUser())
	owned.GET("/products", r.productHandler.List)

	// Per-user resources held by collaborators
	protected := open.Group("")
	protected.Use(r.authMiddleware.RequireIdentity())
	{
		protected.GET("/images", r.imageHandler.List)
		protected.POST("/images/generate", r.generationHandler.Generate)
		protected.GET("/images/:imageId", r.imageHandler.Get)
		protected.DELETE("/images/:imageId", r.imageHandler.Delete)
		protected.PATCH("/images/:imageId/status", r.imageHandler.UpdateStatus)

		protected.GET("/credits", r.creditsHandler.Balance)
		protected.POST("/credits/checkout", r.creditsHandler.Checkout)
	}
}
