package llm

import (
	"fmt"
	"sort"
	"sync"
)

// StreamFormat indicates how a provider delivers streaming responses.
type StreamFormat int

const (
	// StreamSSE uses Server-Sent Events (OpenAI-compatible gateways).
	StreamSSE StreamFormat = iota
	// StreamNDJSON uses newline-delimited JSON.
	StreamNDJSON
)

// Dialect maps universal types to and from one provider's HTTP format.
type Dialect interface {
	// Name returns the dialect identifier (e.g. "openai").
	Name() string

	// ChatPath returns the chat completion endpoint path.
	ChatPath() string

	// HealthPath returns the liveness endpoint path.
	HealthPath() string

	// ModelsPath returns the model listing endpoint path.
	ModelsPath() string

	// BuildRequest maps a CompletionRequest to the provider's JSON body.
	BuildRequest(req CompletionRequest) (any, error)

	// ParseResponse decodes a completion body. A missing required field
	// yields a *FieldError.
	ParseResponse(body []byte) (*CompletionResponse, error)

	// ParseModels decodes a model listing body. An empty list is valid.
	ParseModels(body []byte) ([]ModelInfo, error)

	// StreamFormat returns how this provider delivers streaming data.
	StreamFormat() StreamFormat

	// ParseStreamChunk decodes one stream payload. It reports done for the
	// end-of-stream sentinel and returns an *APIError for in-band errors.
	ParseStreamChunk(data []byte) (content string, done bool, err error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds a dialect to the global registry. Dialect packages
// call it from init().
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a dialect by name from the global registry.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the sorted names of all registered dialects.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
