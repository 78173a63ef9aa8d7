// Package openai implements the llm.Dialect for OpenAI-compatible
// gateways such as LiteLLM. Importing it registers the "openai" dialect.
package openai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kbukum/gatewayprobe/llm"
)

// Name is the registered dialect name.
const Name = "openai"

const (
	chatPath    = "/v1/chat/completions"
	healthPath  = "/health"
	modelsPath  = "/v1/models"
	doneMarker  = "[DONE]"
	missingBody = "invalid JSON body"
)

func init() {
	llm.RegisterDialect(Name, Dialect{})
}

// Dialect speaks the OpenAI chat-completions format.
type Dialect struct{}

var _ llm.Dialect = Dialect{}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []llm.Message       `json:"messages"`
	Temperature    *float64            `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Stream         bool                `json:"stream,omitempty"`
	ResponseFormat *llm.ResponseFormat `json:"response_format,omitempty"`
}

func (Dialect) Name() string { return Name }
func (Dialect) ChatPath() string { return chatPath }
func (Dialect) HealthPath() string { return healthPath }
func (Dialect) ModelsPath() string { return modelsPath }
func (Dialect) StreamFormat() llm.StreamFormat { return llm.StreamSSE }

// BuildRequest maps a CompletionRequest to a chat-completions body.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	messages := make([]llm.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, req.Messages...)
	if len(messages) == 0 {
		return nil, errors.New("openai: at least one message is required")
	}

	return chatRequest{
		Model:          req.Model,
		Messages:       messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		Stream:         req.Stream,
		ResponseFormat: req.ResponseFormat,
	}, nil
}

// ParseResponse decodes a chat-completions body.
func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, &llm.InvalidError{Reason: missingBody}
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
		return nil, apiError(e)
	}

	choices := root.Get("choices")
	if !choices.IsArray() {
		return nil, llm.MissingField("choices")
	}
	first := choices.Get("0")
	if !first.Exists() {
		return nil, llm.MissingField("choices[0]")
	}
	content := first.Get("message.content")
	if !content.Exists() || content.Type == gjson.Null {
		return nil, llm.MissingField("choices[0].message.content")
	}

	usage := root.Get("usage")
	return &llm.CompletionResponse{
		Content:      content.String(),
		Model:        root.Get("model").String(),
		FinishReason: first.Get("finish_reason").String(),
		Usage: llm.Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		},
	}, nil
}

// ParseModels decodes a /v1/models body.
func (Dialect) ParseModels(body []byte) ([]llm.ModelInfo, error) {
	if !gjson.ValidBytes(body) {
		return nil, &llm.InvalidError{Reason: missingBody}
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
		return nil, apiError(e)
	}

	data := root.Get("data")
	if !data.IsArray() {
		return nil, llm.MissingField("data")
	}
	entries := data.Array()
	models := make([]llm.ModelInfo, 0, len(entries))
	for i, entry := range entries {
		id := entry.Get("id")
		if id.Type != gjson.String || id.String() == "" {
			return nil, llm.MissingField(fmt.Sprintf("data[%d].id", i))
		}
		models = append(models, llm.ModelInfo{ID: id.String(), OwnedBy: entry.Get("owned_by").String()})
	}
	return models, nil
}

// ParseStreamChunk decodes one SSE data payload.
func (Dialect) ParseStreamChunk(data []byte) (string, bool, error) {
	payload := strings.TrimSpace(string(data))
	if payload == doneMarker {
		return "", true, nil
	}
	if !gjson.Valid(payload) {
		return "", false, &llm.InvalidError{Reason: "invalid stream chunk"}
	}

	root := gjson.Parse(payload)
	if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
		return "", false, apiError(e)
	}
	choices := root.Get("choices")
	if !choices.Exists() {
		return "", false, llm.MissingField("choices")
	}

	// Usage-only trailer chunks carry an empty choices array.
	first := choices.Get("0")
	for _, path := range []string{"delta.content", "message.content", "text"} {
		if c := first.Get(path); c.Exists() && c.Type != gjson.Null {
			return c.String(), false, nil
		}
	}
	return "", false, nil
}

// apiError converts an OpenAI error payload, which is either an object
// with message/type/code or a bare string.
func apiError(e gjson.Result) *llm.APIError {
	if !e.IsObject() {
		return &llm.APIError{Message: e.String()}
	}
	return &llm.APIError{
		Message: e.Get("message").String(),
		Type:    e.Get("type").String(),
		Code:    e.Get("code").String(),
	}
}
