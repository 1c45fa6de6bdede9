package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"title", "variantIds"},
	"properties": map[string]interface{}{
		"title": map[string]interface{}{
			"type":      "string",
			"maxLength": 5,
		},
		"variantIds": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
		},
	},
})

func TestSchema_Valid(t *testing.T) {
	err := testSchema.Validate(map[string]interface{}{
		"title":      "Tee",
		"variantIds": []int{1},
	})
	assert.NoError(t, err)
}

func TestSchema_ReportsFields(t *testing.T) {
	err := testSchema.Validate(map[string]interface{}{
		"title":      "Too long title",
		"variantIds": []int{},
	})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	ve := GetValidationErrors(err)
	require.Len(t, ve.Errors, 2)
	assert.Equal(t, "title", ve.Errors[0].Field)
	assert.Equal(t, "variantIds", ve.Errors[1].Field)
}

func TestSchema_MissingRequiredUsesPropertyName(t *testing.T) {
	type doc struct {
		Title string `json:"title"`
	}
	err := testSchema.Validate(doc{Title: "ok"})
	ve := GetValidationErrors(err)
	require.NotNil(t, ve)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "variantIds", ve.Errors[0].Field)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}

func TestField(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Field("status", "unknown status"))
	assert.True(t, IsValidationError(err))
	assert.Equal(t, "status: unknown status", GetValidationErrors(err).Error())
	assert.Nil(t, GetValidationErrors(errors.New("plain")))
}
