package product

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/pixelprint/storefront/internal/storage/postgres"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(postgres.Wrap(db)), mock
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rec := &Record{
		ID:              uuid.New(),
		UserID:          "user-1",
		RemoteID:        "p1",
		Title:           "Tee",
		ImageURL:        "https://cdn/x.png",
		BlueprintID:     6,
		PrintProviderID: 3,
		VariantIDs:      []int{1, 2},
	}

	mock.ExpectQuery("INSERT INTO product_records").
		WithArgs(rec.ID, "user-1", "p1", "Tee", nil, "https://cdn/x.png", nil, 6, 3, "{1,2}").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, expected %v", rec.CreatedAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRepositoryListByUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "remote_id", "title", "description", "image_url", "image_id",
		"blueprint_id", "print_provider_id", "variant_ids", "created_at",
	}).AddRow(id.String(), "user-1", "p1", "Tee", nil, "https://cdn/x.png", "img-1", 6, 3, []byte("{4,5}"), now)

	mock.ExpectQuery("SELECT (.+) FROM product_records WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(rows)

	records, err := repo.ListByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.ID != id {
		t.Errorf("ID = %v, expected %v", rec.ID, id)
	}
	if rec.Description != "" {
		t.Errorf("Description = %q, expected empty", rec.Description)
	}
	if rec.ImageID != "img-1" {
		t.Errorf("ImageID = %q, expected img-1", rec.ImageID)
	}
	if len(rec.VariantIDs) != 2 || rec.VariantIDs[0] != 4 || rec.VariantIDs[1] != 5 {
		t.Errorf("VariantIDs = %v, expected [4 5]", rec.VariantIDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
