// Package llm wraps the language-model collaborator behind a small interface
// used by every response strategy.
package llm

import (
	"context"
	"fmt"
	"strings"

	"maitred/internal/models"
)

// Provider is the language-model collaborator.
type Provider interface {
	// Complete returns free text for a system prompt, a user prompt and prior turns.
	Complete(ctx context.Context, systemPrompt, userPrompt string, history []models.Message) (string, error)
	// CompleteStructured returns a JSON object whose fields match schema.
	// Output that cannot be parsed or fails the schema yields models.ErrMalformedOutput.
	CompleteStructured(ctx context.Context, systemPrompt, prompt string, schema Schema) (Fields, error)
}

// FieldType is the JSON type expected for a structured field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
)

// Field describes one required key in a structured response.
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// Schema is the ordered set of fields a structured response must carry.
type Schema []Field

// Instructions renders the schema as a prompt suffix.
func (s Schema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with only a JSON object containing exactly these fields:\n")
	for _, f := range s {
		fmt.Fprintf(&b, "- %q (%s): %s\n", f.Name, f.Type, f.Description)
	}
	return b.String()
}
