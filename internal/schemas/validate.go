// Package schemas provides JSON Schema validation for structured council
// artifacts. Schemas are embedded at compile time.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed decision.schema.json
var decisionSchemaJSON []byte

var (
	decisionSchema     *gojsonschema.Schema
	decisionSchemaOnce sync.Once
	decisionSchemaErr  error
)

// ValidationError reports schema violations with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single violation at one field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return sb.String()
}

// ValidateDecision checks a JSON document against the decision result schema.
// Returns nil when the document conforms, a *ValidationError when it does
// not, and a plain error when the document is not valid JSON at all.
func ValidateDecision(doc []byte) error {
	decisionSchemaOnce.Do(func() {
		decisionSchema, decisionSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(decisionSchemaJSON))
	})
	if decisionSchemaErr != nil {
		return fmt.Errorf("failed to compile decision schema: %w", decisionSchemaErr)
	}

	result, err := decisionSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}
