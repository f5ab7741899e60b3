package llm

import (
	"context"
	"encoding/base64"
)

// Completer is implemented by every model provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Image is an inline picture attached to a request.
type Image struct {
	MIME string
	Data []byte
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIME + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Base64 returns the image bytes base64 encoded.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// Schema describes a structured JSON reply.
type Schema struct {
	Name       string
	Properties map[string]string // property name -> JSON type
	Required   []string
}

// JSONSchema renders the schema as a JSON Schema object.
func (s Schema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, typ := range s.Properties {
		props[name] = map[string]any{"type": typ}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             s.Required,
		"additionalProperties": false,
	}
}

// Request is a single-turn completion.
type Request struct {
	System string
	Prompt string
	Image  *Image
	// JSON requests a JSON object reply.
	JSON bool
	// Schema constrains the JSON reply; implies JSON.
	Schema *Schema
	// MaxTokens caps the reply length; zero uses the provider default.
	MaxTokens int
}

// WantsJSON reports whether the caller expects a JSON reply.
func (r Request) WantsJSON() bool {
	return r.JSON || r.Schema != nil
}
