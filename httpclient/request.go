package httpclient

import (
	"context"
	"io"
	"net/http"

	"github.com/kbukum/gatewayprobe/httpclient/sse"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is appended to the adapter's BaseURL. Can be a full URL.
	Path string
	// Headers are request-specific headers, merged over adapter defaults.
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is JSON-encoded unless it is an io.Reader, []byte or string.
	Body any
	// Auth overrides the adapter-level auth for this request.
	Auth *AuthConfig
}

// Response is a completed HTTP exchange, whatever its status.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Headers["Content-Type"]
}

// StreamResponse is a streaming HTTP response. For non-2xx responses the
// body has already been read into ErrorBody and neither SSE nor Body is set.
type StreamResponse struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// SSE reads events from a text/event-stream body.
	SSE sse.Reader
	// Body is the raw body of other 2xx responses.
	Body io.ReadCloser
	// ErrorBody holds the body of a non-2xx response.
	ErrorBody []byte

	rawResp *http.Response
	ctx     context.Context
	cancel  context.CancelFunc
}

// ReadError classifies a failure that occurred while consuming the stream
// as an *Error, the same way a failed request is classified.
func (r *StreamResponse) ReadError(err error) error {
	if err == nil || r.ctx == nil {
		return err
	}
	return classifyTransportError(r.ctx, err)
}

// IsSuccess returns true if the status code is 2xx.
func (r *StreamResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Close releases the stream and its timeout.
func (r *StreamResponse) Close() error {
	defer func() {
		if r.cancel != nil {
			r.cancel()
		}
	}()
	switch {
	case r.SSE != nil:
		return r.SSE.Close()
	case r.Body != nil:
		return r.Body.Close()
	case r.rawResp != nil && r.rawResp.Body != nil:
		return r.rawResp.Body.Close()
	}
	return nil
}
