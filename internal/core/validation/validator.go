package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(msgs, "; ")
}

// Field builds a single-field validation failure for checks that do not go
// through a schema.
func Field(field, message string) error {
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Message: message}}}
}

// Schema is a compiled JSON schema. Compile once at package init and reuse.
type Schema struct {
	schema *gojsonschema.Schema
}

func Compile(schema map[string]interface{}) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

func MustCompile(schema map[string]interface{}) *Schema {
	s, err := Compile(schema)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks doc, any value that marshals to JSON, against the schema.
// Failures are returned as *ValidationErrors sorted by field.
func (s *Schema) Validate(doc interface{}) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	var validationErrors []ValidationError
	for _, desc := range result.Errors() {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldOf(desc),
			Message: desc.Description(),
		})
	}
	sort.SliceStable(validationErrors, func(i, j int) bool {
		return validationErrors[i].Field < validationErrors[j].Field
	})
	return &ValidationErrors{Errors: validationErrors}
}

// fieldOf reports missing required properties under their own name rather
// than under the parent object.
func fieldOf(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if desc.Field() == "(root)" || desc.Field() == "" {
				return prop
			}
			return desc.Field() + "." + prop
		}
	}
	return desc.Field()
}

func IsValidationError(err error) bool {
	var ve *ValidationErrors
	return errors.As(err, &ve)
}

func GetValidationErrors(err error) *ValidationErrors {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
