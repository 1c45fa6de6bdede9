package product

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/pixelprint/storefront/internal/storage/postgres"
)

type Repository struct {
	db *postgres.Client
}

func NewRepository(db *postgres.Client) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO product_records (id, user_id, remote_id, title, description, image_url, image_id, blueprint_id, print_provider_id, variant_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	return r.db.DB.QueryRowContext(ctx, query,
		rec.ID, rec.UserID, rec.RemoteID, rec.Title, nullString(rec.Description), rec.ImageURL, nullString(rec.ImageID),
		rec.BlueprintID, rec.PrintProviderID, toInt64Array(rec.VariantIDs),
	).Scan(&rec.CreatedAt)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	query := `
		SELECT id, user_id, remote_id, title, description, image_url, image_id, blueprint_id, print_provider_id, variant_ids, created_at
		FROM product_records
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec := &Record{}
		var description, imageID sql.NullString
		var variantIDs pq.Int64Array

		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.RemoteID, &rec.Title, &description, &rec.ImageURL, &imageID,
			&rec.BlueprintID, &rec.PrintProviderID, &variantIDs, &rec.CreatedAt); err != nil {
			return nil, err
		}

		rec.Description = description.String
		rec.ImageID = imageID.String
		rec.VariantIDs = make([]int, len(variantIDs))
		for i, id := range variantIDs {
			rec.VariantIDs[i] = int(id)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toInt64Array(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
