package product

import (
	"github.com/pixelprint/storefront/internal/core/validation"
)

var payloadSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"title", "imageUrl", "blueprintId", "printProviderId", "variantIds"},
	"properties": map[string]interface{}{
		"title": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": MaxTitleLength,
			"pattern":   `\S`,
		},
		"description": map[string]interface{}{
			"type":      "string",
			"maxLength": MaxDescriptionLength,
		},
		"imageUrl": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"blueprintId": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"printProviderId": map[string]interface{}{
			"type":    "integer",
			"minimum": 1,
		},
		"variantIds": map[string]interface{}{
			"type":        "array",
			"minItems":    1,
			"uniqueItems": true,
			"items": map[string]interface{}{
				"type":    "integer",
				"minimum": 1,
			},
		},
	},
})

// Validate checks a normalized payload without touching the network.
// Failures are *validation.ValidationErrors.
func Validate(p Payload) error {
	return payloadSchema.Validate(p)
}
