package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order. Every statement must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS product_records (
		id                UUID PRIMARY KEY,
		user_id           TEXT NOT NULL,
		remote_id         TEXT NOT NULL,
		title             TEXT NOT NULL,
		description       TEXT,
		image_url         TEXT NOT NULL,
		image_id          TEXT,
		blueprint_id      INTEGER NOT NULL,
		print_provider_id INTEGER NOT NULL,
		variant_ids       INTEGER[] NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_records_user_created
		ON product_records (user_id, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_product_records_remote_id
		ON product_records (remote_id)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
