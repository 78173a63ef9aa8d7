package structured

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a JSON Schema reflected from a Go type and compiled for
// validation.
type Schema struct {
	name     string
	required []string
	doc      map[string]any
	compiled *jsv.Schema
}

// Reflect builds the Schema for T. Fields without omitempty are required.
func Reflect[T any](name string) (*Schema, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(new(T))
	// Providers reject the $schema keyword inside response_format.
	s.Version = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("structured: marshal schema %s: %w", name, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("structured: decode schema %s: %w", name, err)
	}

	url := name + ".json"
	c := jsv.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("structured: add schema %s: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("structured: compile schema %s: %w", name, err)
	}

	return &Schema{
		name:     name,
		required: append([]string(nil), s.Required...),
		doc:      doc,
		compiled: compiled,
	}, nil
}

// Name returns the schema name sent to the provider.
func (s *Schema) Name() string { return s.name }

// Document returns the schema as a generic JSON document.
func (s *Schema) Document() map[string]any { return s.doc }

// Required returns the top-level required properties in declaration order.
func (s *Schema) Required() []string { return s.required }

// Validate checks a decoded JSON value against the schema.
func (s *Schema) Validate(v any) error {
	return s.compiled.Validate(v)
}

// MissingRequired returns the first required top-level property absent from
// v, or "" when all are present or v is not an object.
func (s *Schema) MissingRequired(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	for _, name := range s.required {
		if _, present := obj[name]; !present {
			return name
		}
	}
	return ""
}
