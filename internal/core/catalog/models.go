package catalog

import "time"

type Blueprint struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Model       string   `json:"model"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

type Provider struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Variant struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Available bool   `json:"isAvailable"`
}

// ColorGroup is the derived view of one color and its variants.
type ColorGroup struct {
	Color    string    `json:"color"`
	Variants []Variant `json:"variants"`
	Sizes    []string  `json:"sizes"`
}

// CreateProductRequest is the body posted to the product creation endpoint.
type CreateProductRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ImageURL        string `json:"imageUrl"`
	BlueprintID     int    `json:"blueprintId"`
	PrintProviderID int    `json:"printProviderId"`
	VariantIDs      []int  `json:"variantIds"`
}

type CreatedProduct struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	BlueprintID     int        `json:"blueprintId"`
	PrintProviderID int        `json:"printProviderId"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}

// CreateProductResult mirrors the {success, data, message} envelope returned
// by the product creation endpoint.
type CreateProductResult struct {
	Success bool            `json:"success"`
	Product *CreatedProduct `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}
