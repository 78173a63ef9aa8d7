package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/gatewayprobe/httpclient"
	"github.com/kbukum/gatewayprobe/llm"
)

// streaming opens a streamed completion. It succeeds when at least one
// content chunk arrives and the stream ends cleanly, by sentinel or EOF.
func (p *Prober) streaming(ctx context.Context, model string) Outcome {
	req := p.request(model, streamingPrompt)
	req.Stream = true
	body, err := p.dialect.BuildRequest(req)
	if err != nil {
		return Classify(Observation{Err: httpclient.NewRequestError("build request", err)}, nil)
	}

	resp, err := p.transport.DoStream(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   p.dialect.ChatPath(),
		Body:   body,
	})
	if err != nil {
		return Classify(Observation{Err: err}, nil)
	}
	if !resp.IsSuccess() {
		_ = resp.Close()
		return Classify(Observation{Response: &httpclient.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.ErrorBody,
		}}, nil)
	}

	status := resp.StatusCode
	var (
		text   strings.Builder
		chunks int
		ended  bool
	)
	for chunk := range llm.ReadStream(ctx, p.dialect, resp) {
		if chunk.Err != nil {
			return streamFailure(status, chunks, chunk.Err)
		}
		if chunk.Done {
			ended = true
			break
		}
		if chunk.Content != "" {
			chunks++
			text.WriteString(chunk.Content)
		}
	}

	// The reader stops silently when ctx ends.
	if err := ctx.Err(); err != nil && !ended {
		if errors.Is(err, context.DeadlineExceeded) {
			return Timeout(stalled(chunks))
		}
		return Classify(Observation{Err: httpclient.NewCanceledError(err)}, nil)
	}
	if chunks == 0 {
		return Malformed(status, llm.ErrEmptyStream.Error())
	}
	return Success(status, fmt.Sprintf("%d chunks: %s", chunks, text.String()))
}

// streamFailure classifies an error raised while reading a 2xx stream.
func streamFailure(status, chunks int, err error) Outcome {
	if _, ok := httpclient.CodeOf(err); ok {
		if httpclient.IsTimeout(err) {
			return Timeout(stalled(chunks))
		}
		return Classify(Observation{Err: err}, nil)
	}
	if api, ok := llm.AsAPIError(err); ok {
		return envelopeOutcome(status, api.Message)
	}
	return Malformed(status, err.Error())
}

func stalled(chunks int) string {
	if chunks == 0 {
		return "no chunk before deadline"
	}
	return fmt.Sprintf("stream stalled after %d chunks", chunks)
}
