package product

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pixelprint/storefront/internal/core/catalog"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Payload is the product creation request as assembled by the wizard or
// posted directly by a client. ImageID optionally names the saved image the
// product was made from so it can be marked printed afterwards.
type Payload struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImageURL        string `json:"imageUrl"`
	ImageID         string `json:"imageId,omitempty"`
	BlueprintID     int    `json:"blueprintId"`
	PrintProviderID int    `json:"printProviderId"`
	VariantIDs      []int  `json:"variantIds"`
}

// Normalize trims text fields and defaults the description to the title.
func (p Payload) Normalize() Payload {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.ImageID = strings.TrimSpace(p.ImageID)
	if p.Description == "" {
		p.Description = p.Title
	}
	ids := make([]int, len(p.VariantIDs))
	copy(ids, p.VariantIDs)
	p.VariantIDs = ids
	return p
}

func (p Payload) Request() *catalog.CreateProductRequest {
	return &catalog.CreateProductRequest{
		Title:           p.Title,
		Description:     p.Description,
		ImageURL:        p.ImageURL,
		BlueprintID:     p.BlueprintID,
		PrintProviderID: p.PrintProviderID,
		VariantIDs:      p.VariantIDs,
	}
}

// Record is the local trace of a product created remotely.
type Record struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"user_id"`
	RemoteID        string    `json:"remote_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"image_url"`
	ImageID         string    `json:"image_id,omitempty"`
	BlueprintID     int       `json:"blueprint_id"`
	PrintProviderID int       `json:"print_provider_id"`
	VariantIDs      []int     `json:"variant_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

type Result struct {
	Product *catalog.CreatedProduct `json:"product"`
	Message string                  `json:"message,omitempty"`
	Record  *Record                 `json:"record,omitempty"`
}
