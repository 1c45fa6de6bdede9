package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelprint/storefront/config"
	"github.com/pixelprint/storefront/internal/api"
	"github.com/pixelprint/storefront/internal/api/handlers"
	"github.com/pixelprint/storefront/internal/api/middleware"
	"github.com/pixelprint/storefront/internal/core/auth"
	"github.com/pixelprint/storefront/internal/core/catalog"
	"github.com/pixelprint/storefront/internal/core/credits"
	"github.com/pixelprint/storefront/internal/core/gallery"
	"github.com/pixelprint/storefront/internal/core/generation"
	"github.com/pixelprint/storefront/internal/core/product"
	"github.com/pixelprint/storefront/internal/core/wizard"
	"github.com/pixelprint/storefront/internal/httpclient"
	"github.com/pixelprint/storefront/internal/logging"
	"github.com/pixelprint/storefront/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Product records are optional; without a database products are only
	// created remotely.
	var (
		recorder product.Recorder
		pinger   handlers.Pinger
	)
	if cfg.Database.Enabled {
		db, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db.DB); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Connected to database")

		recorder = product.NewRepository(db)
		pinger = db
	}

	clientFor := func(baseURL string) *httpclient.Client {
		return httpclient.New(httpclient.Config{BaseURL: baseURL, Timeout: cfg.Services.Timeout})
	}

	// Stage transitions of the selection machine are debug noise in logrus.
	fsmLog := logger.WriterLevel(logrus.DebugLevel)
	defer fsmLog.Close()
	fsmHandler := slog.NewTextHandler(fsmLog, &slog.HandlerOptions{Level: slog.LevelDebug})

	// Initialize services
	verifier := auth.NewVerifier(cfg.Auth)
	if !verifier.Verifies() {
		logger.Warn("JWT_SECRET is not set; bearer tokens are forwarded without verification and local product history is unavailable")
	}
	gateway := catalog.NewGateway(clientFor(cfg.Services.CatalogURL), logger)
	images := gallery.NewClient(clientFor(cfg.Services.ImageServiceURL), logger)
	billing := credits.NewClient(clientFor(cfg.Services.PaymentURL), logger)
	generator := generation.NewService(clientFor(cfg.Services.GenerationURL), billing, logger)
	productService := product.NewService(gateway, recorder, images, logger)

	store := wizard.NewStore(cfg.Wizard.SessionTTL)
	wizardService := wizard.NewService(gateway, productService, store, fsmHandler, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	if cfg.Wizard.SessionTTL > 0 {
		go store.Janitor(ctx, cfg.Wizard.SweepInterval, func(n int) {
			logger.WithField("expired", n).Info("expired idle wizard sessions")
		})
	}
	if rateLimiter.Enabled() {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					rateLimiter.Sweep(10 * time.Minute)
				}
			}
		}()
	}

	// Setup router
	router := api.NewRouter(
		logger,
		verifier,
		rateLimiter,
		handlers.NewHealthHandler(pinger, store),
		handlers.NewCatalogHandler(gateway),
		handlers.NewWizardHandler(wizardService),
		handlers.NewProductHandler(productService),
		handlers.NewImageHandler(images),
		handlers.NewGenerationHandler(generator),
		handlers.NewCreditsHandler(billing),
	)
	engine := router.Setup(cfg.Server.Mode)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Failed to start server: %v", err)
	}
	<-done
}
