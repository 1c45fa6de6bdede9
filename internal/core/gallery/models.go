package gallery

import "time"

type Status string

const (
	StatusGenerated Status = "generated"
	StatusPrinted   Status = "printed"
	StatusOrdered   Status = "ordered"
	StatusDeleted   Status = "deleted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusGenerated, StatusPrinted, StatusOrdered, StatusDeleted:
		return true
	}
	return false
}

// Image is a generated image persisted by the image service.
type Image struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id,omitempty"`
	Prompt    string                 `json:"prompt"`
	URL       string                 `json:"url"`
	Status    Status                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type Page struct {
	Images     []Image `json:"images"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
}
