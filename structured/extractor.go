package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsv "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kbukum/gatewayprobe/llm"
)

// ResponseFormatJSONSchema is the response_format type for schema output.
const ResponseFormatJSONSchema = "json_schema"

// Extractor requests and decodes structured output of type T.
type Extractor[T any] struct {
	schema *Schema
}

// NewExtractor reflects T and returns an Extractor for it.
func NewExtractor[T any](name string) (*Extractor[T], error) {
	s, err := Reflect[T](name)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{schema: s}, nil
}

// Schema returns the compiled schema.
func (e *Extractor[T]) Schema() *Schema { return e.schema }

// ResponseFormat returns the response_format that asks for schema output.
func (e *Extractor[T]) ResponseFormat() *llm.ResponseFormat {
	return &llm.ResponseFormat{
		Type: ResponseFormatJSONSchema,
		JSONSchema: &llm.JSONSchemaFormat{
			Name:   e.schema.Name(),
			Schema: e.schema.Document(),
		},
	}
}

// Request returns req constrained to the schema. The schema is also spelled
// out in the system prompt for gateways that drop response_format.
func (e *Extractor[T]) Request(req llm.CompletionRequest) llm.CompletionRequest {
	req.ResponseFormat = e.ResponseFormat()

	raw, _ := json.Marshal(e.schema.Document())
	instruction := "Answer only with a JSON object that matches this JSON Schema:\n" + string(raw)
	if req.SystemPrompt != "" {
		req.SystemPrompt += "\n\n" + instruction
	} else {
		req.SystemPrompt = instruction
	}
	return req
}

// Decode validates model output and decodes it into T. Markdown fences and
// surrounding prose are tolerated. A missing required property yields an
// *llm.FieldError; any other mismatch yields an *llm.InvalidError.
func (e *Extractor[T]) Decode(content string) (T, error) {
	var out T

	raw := llm.ExtractJSON(content)
	if raw == "" {
		return out, &llm.InvalidError{Reason: "empty output"}
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return out, &llm.InvalidError{Reason: "output is not valid JSON", Err: err}
	}

	if err := e.schema.Validate(doc); err != nil {
		if field := e.schema.MissingRequired(doc); field != "" {
			return out, llm.MissingField(field)
		}
		return out, &llm.InvalidError{Reason: describe(err)}
	}

	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, &llm.InvalidError{Reason: "output does not match " + e.schema.Name(), Err: err}
	}
	return out, nil
}

// describe reduces a schema validation error to its first leaf cause.
func describe(err error) string {
	var verr *jsv.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	loc := strings.TrimPrefix(verr.InstanceLocation, "/")
	if loc == "" {
		return verr.Message
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(loc, "/", "."), verr.Message)
}
