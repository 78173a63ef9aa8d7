package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/gatewayprobe/httpclient"
	"github.com/kbukum/gatewayprobe/llm"
	"github.com/kbukum/gatewayprobe/llm/openai"
	"github.com/kbukum/gatewayprobe/logger"
	"github.com/kbukum/gatewayprobe/observability"
	"github.com/kbukum/gatewayprobe/structured"
)

const (
	defaultMaxTokens    = 64
	minStructuredTokens = 512
	completionPrompt    = "Say hello in one short sentence."
	streamingPrompt     = "Count from one to five in words."
	reviewerPrompt      = "You are a code reviewer."
)

// Checker runs the individual probes. Each call is bounded by ctx and
// returns exactly one Outcome.
type Checker interface {
	// Liveness checks that the gateway answers at all.
	Liveness(ctx context.Context) Outcome
	// Enumerate lists the model identifiers the gateway is configured with.
	Enumerate(ctx context.Context) ([]string, Outcome)
	// Invoke tests one model in one mode.
	Invoke(ctx context.Context, model string, mode Mode) Outcome
}

// Transport sends requests to the gateway. *httpclient.Adapter implements it.
type Transport interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
	DoStream(ctx context.Context, req httpclient.Request) (*httpclient.StreamResponse, error)
}

// Prober is the Checker for OpenAI-compatible gateways.
type Prober struct {
	transport Transport
	dialect   llm.Dialect
	review    *structured.Extractor[structured.CodeReview]
	maxTokens int
	log       *logger.Logger
}

var _ Checker = (*Prober)(nil)

// Option configures a Prober.
type Option func(*Prober)

// WithDialect overrides the wire dialect. The default is openai.
func WithDialect(d llm.Dialect) Option {
	return func(p *Prober) { p.dialect = d }
}

// WithMaxTokens sets max_tokens for completion and streaming requests.
func WithMaxTokens(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Prober) { p.log = l }
}

// NewProber creates a Prober over transport.
func NewProber(transport Transport, opts ...Option) (*Prober, error) {
	review, err := structured.NewExtractor[structured.CodeReview](structured.CodeReviewName)
	if err != nil {
		return nil, fmt.Errorf("probe: build review schema: %w", err)
	}
	p := &Prober{
		transport: transport,
		dialect:   openai.Dialect{},
		review:    review,
		maxTokens: defaultMaxTokens,
		log:       logger.WithComponent("probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Liveness issues GET on the health path. Any 2xx is a success.
func (p *Prober) Liveness(ctx context.Context) Outcome {
	return p.traced(ctx, observability.SpanProbeLiveness, "", "", func(ctx context.Context) Outcome {
		resp, err := p.transport.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: p.dialect.HealthPath()})
		return Classify(Observation{Response: resp, Err: err}, nil)
	})
}

// Enumerate issues GET on the models path and returns the listed ids in
// response order. An empty list is a success.
func (p *Prober) Enumerate(ctx context.Context) ([]string, Outcome) {
	var ids []string
	outcome := p.traced(ctx, observability.SpanProbeEnum, "", "", func(ctx context.Context) Outcome {
		resp, err := p.transport.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: p.dialect.ModelsPath()})
		return Classify(Observation{Response: resp, Err: err}, func(body []byte) (string, error) {
			models, err := p.dialect.ParseModels(body)
			if err != nil {
				return "", decodeError(err)
			}
			ids = make([]string, len(models))
			for i, m := range models {
				ids[i] = m.ID
			}
			return fmt.Sprintf("%d models", len(ids)), nil
		})
	})
	if !outcome.OK() {
		return nil, outcome
	}
	return ids, outcome
}

// Invoke tests model in mode.
func (p *Prober) Invoke(ctx context.Context, model string, mode Mode) Outcome {
	return p.traced(ctx, observability.SpanProbeInvoke, model, mode, func(ctx context.Context) Outcome {
		switch mode {
		case ModeCompletion:
			return p.completion(ctx, model)
		case ModeStructured:
			return p.structuredOutput(ctx, model)
		case ModeStreaming:
			return p.streaming(ctx, model)
		default:
			return Unsupported(0, fmt.Sprintf("unknown mode %q", mode))
		}
	})
}

func (p *Prober) completion(ctx context.Context, model string) Outcome {
	req := p.request(model, completionPrompt)
	return p.post(ctx, req, func(body []byte) (string, error) {
		resp, err := p.dialect.ParseResponse(body)
		if err != nil {
			return "", decodeError(err)
		}
		if resp.Content == "" {
			return "", &MalformedError{Detail: "empty field choices[0].message.content"}
		}
		return fmt.Sprintf("%s: %s", resolved(resp.Model, model), resp.Content), nil
	})
}

func (p *Prober) structuredOutput(ctx context.Context, model string) Outcome {
	req := p.request(model, "Review this python code:\n\n"+structured.CodeReviewSample)
	req.SystemPrompt = reviewerPrompt
	req.MaxTokens = max(p.maxTokens, minStructuredTokens)
	req = p.review.Request(req)

	return p.post(ctx, req, func(body []byte) (string, error) {
		resp, err := p.dialect.ParseResponse(body)
		if err != nil {
			return "", decodeError(err)
		}
		review, err := p.review.Decode(resp.Content)
		if err != nil {
			return "", decodeError(err)
		}
		return fmt.Sprintf("%s: %s, %d issues", resolved(resp.Model, model), review.OverallQuality, len(review.Issues)), nil
	})
}

func (p *Prober) request(model, prompt string) llm.CompletionRequest {
	temperature := 0.0
	return llm.CompletionRequest{
		Model:       model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: &temperature,
		MaxTokens:   p.maxTokens,
	}
}

func (p *Prober) post(ctx context.Context, req llm.CompletionRequest, decode Decoder) Outcome {
	body, err := p.dialect.BuildRequest(req)
	if err != nil {
		return Classify(Observation{Err: httpclient.NewRequestError("build request", err)}, nil)
	}
	resp, err := p.transport.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   p.dialect.ChatPath(),
		Body:   body,
	})
	return Classify(Observation{Response: resp, Err: err}, decode)
}

// traced runs fn under a span and logs the outcome.
func (p *Prober) traced(ctx context.Context, span, model string, mode Mode, fn func(context.Context) Outcome) Outcome {
	ctx, s := observability.StartSpan(ctx, span)
	defer s.End()
	if model != "" {
		observability.SetSpanAttribute(ctx, observability.AttrModel, model)
		observability.SetSpanAttribute(ctx, observability.AttrMode, string(mode))
	}

	start := time.Now()
	outcome := fn(ctx)

	observability.SetSpanAttribute(ctx, observability.AttrOutcome, string(outcome.Kind))
	if outcome.Status != 0 {
		observability.SetSpanAttribute(ctx, observability.AttrHTTPStatus, outcome.Status)
	}
	if !outcome.OK() {
		observability.SetSpanError(ctx, fmt.Errorf("%s", outcome))
	}

	p.log.Debug("probe finished", logger.Fields(
		"probe", span,
		logger.FieldModel, model,
		logger.FieldMode, string(mode),
		logger.FieldOutcome, string(outcome.Kind),
		logger.FieldDetail, outcome.Detail,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return outcome
}

// decodeError maps dialect and extractor errors onto the classifier's
// decode errors.
func decodeError(err error) error {
	if api, ok := llm.AsAPIError(err); ok {
		if isDenial(api.Message) {
			return &DenialError{Reason: api.Message}
		}
		return &MalformedError{Detail: errorBodyDetail(api.Message)}
	}
	return &MalformedError{Detail: err.Error()}
}

func resolved(got, requested string) string {
	if got != "" {
		return got
	}
	return requested
}
