package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixelprint/storefront/config"
	"github.com/pixelprint/storefront/internal/logging"
	"github.com/pixelprint/storefront/internal/storage/postgres"
)

// migrate applies the product record schema and exits. It ignores
// DB_ENABLED: running it means a database is wanted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db.DB); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
	}).Info("Database schema is up to date")
}
