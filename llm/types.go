package llm

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// CompletionRequest is the universal chat-completion input.
type CompletionRequest struct {
	// Model is the model identifier as the gateway knows it.
	Model string `json:"model" yaml:"model"`
	// Messages is the conversation.
	Messages []Message `json:"messages" yaml:"messages"`
	// SystemPrompt is prepended as a system message.
	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	// Temperature controls randomness. Nil leaves the provider default.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature"`
	// MaxTokens limits the response length. 0 means provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
	// Stream requests incremental delivery.
	Stream bool `json:"stream,omitempty" yaml:"stream"`
	// ResponseFormat constrains the output to a JSON schema.
	ResponseFormat *ResponseFormat `json:"response_format,omitempty" yaml:"response_format"`
}

// ResponseFormat requests structured output.
type ResponseFormat struct {
	// Type is "json_schema" or "json_object".
	Type string `json:"type"`
	// JSONSchema is set when Type is "json_schema".
	JSONSchema *JSONSchemaFormat `json:"json_schema,omitempty"`
}

// JSONSchemaFormat names a schema the output must satisfy.
type JSONSchemaFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict,omitempty"`
}

// CompletionResponse is the universal chat-completion output.
type CompletionResponse struct {
	// Content is the generated text.
	Content string `json:"content"`
	// Model is the model that produced the response, as resolved by the gateway.
	Model string `json:"model"`
	// FinishReason is the provider's stop reason.
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage reports token consumption.
	Usage Usage `json:"usage"`
}

// StreamChunk is a single piece of a streamed response.
type StreamChunk struct {
	// Content is the text fragment.
	Content string `json:"content"`
	// Done marks the end-of-stream sentinel; it carries no content.
	Done bool `json:"done"`
	// Err is set when reading or decoding the stream fails.
	Err error `json:"-"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo is one entry of the gateway's model list.
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}
