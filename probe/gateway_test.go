package probe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/gatewayprobe/httpclient"
)

const testToken = "sk-test"

// fakeGateway is an OpenAI-compatible gateway whose behaviour per model is
// scripted by the test.
type fakeGateway struct {
	models     string
	completion map[string]http.HandlerFunc
	structured map[string]string
	streams    map[string][]string
	blockAll   bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		models:     `{"object":"list","data":[{"id":"model-a"},{"id":"model-b"}]}`,
		completion: map[string]http.HandlerFunc{},
		structured: map[string]string{},
		streams:    map[string][]string{},
	}
}

func (g *fakeGateway) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(g.models))
	})
	mux.HandleFunc("/v1/chat/completions", g.chat)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Authentication Error, invalid key"}}`))
			return
		}
		if g.blockAll {
			<-r.Context().Done()
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (g *fakeGateway) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model          string         `json:"model"`
		Stream         bool           `json:"stream"`
		MaxTokens      int            `json:"max_tokens"`
		ResponseFormat map[string]any `json:"response_format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch {
	case req.Stream:
		g.stream(w, r, req.Model)
	case req.ResponseFormat != nil:
		content, ok := g.structured[req.Model]
		if !ok {
			content = `{"summary":"Sums price times quantity.","issues":["use enumerate"],"overall_quality":"fair"}`
		}
		writeCompletion(w, req.Model, content)
	default:
		if h, ok := g.completion[req.Model]; ok {
			h(w, r)
			return
		}
		writeCompletion(w, req.Model, "Hello there!")
	}
}

func (g *fakeGateway) stream(w http.ResponseWriter, r *http.Request, model string) {
	chunks, ok := g.streams[model]
	if !ok {
		chunks = []string{delta("One, "), delta("two, "), delta("three."), "[DONE]"}
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher := w.(http.Flusher)
	flusher.Flush()
	for _, c := range chunks {
		if c == "<block>" {
			<-r.Context().Done()
			return
		}
		_, _ = fmt.Fprintf(w, "data: %s\n\n", c)
		flusher.Flush()
	}
}

func delta(s string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": s}}},
	})
	return string(b)
}

func writeCompletion(w http.ResponseWriter, model, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": model,
		"choices": []any{map[string]any{
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func newTestProber(t *testing.T, baseURL, token string, timeout time.Duration) *Prober {
	t.Helper()
	ep := Endpoint{BaseURL: baseURL, Token: token}
	adapter, err := httpclient.New(ep.TransportConfig(timeout, 4))
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	t.Cleanup(func() { _ = adapter.Close(t.Context()) })

	p, err := NewProber(adapter, WithMaxTokens(32))
	if err != nil {
		t.Fatalf("NewProber: %v", err)
	}
	return p
}
