package generation

import "github.com/pixelprint/storefront/internal/core/gallery"

const (
	MaxPromptLength = 1000
	MaxSamples      = 4
	CreditsPerImage = 1
)

// Request mirrors the inference service's generate body. Zero values are
// omitted so the service applies its own defaults.
type Request struct {
	Prompt        string                 `json:"prompt"`
	Width         int                    `json:"width,omitempty"`
	Height        int                    `json:"height,omitempty"`
	Samples       int                    `json:"samples,omitempty"`
	Steps         int                    `json:"steps,omitempty"`
	CfgScale      float64                `json:"cfgScale,omitempty"`
	SaveToStorage bool                   `json:"saveToStorage,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type GeneratedImage struct {
	ID           string `json:"id"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finish_reason"`
}

// Result holds either the raw image of a single-sample request or the
// metadata of a multi-sample one.
type Result struct {
	ContentType string           `json:"-"`
	Image       []byte           `json:"-"`
	Images      []GeneratedImage `json:"images,omitempty"`
	SavedImages []gallery.Image  `json:"saved_images,omitempty"`
	Remaining   *int             `json:"remaining_credits,omitempty"`
}

// Raw reports whether the result carries image bytes.
func (r *Result) Raw() bool {
	return r.Image != nil
}
