// Package httpclient is the transport used to talk to the gateway.
//
// The Adapter sends one HTTP exchange per call, applies bearer auth and a
// per-call timeout, and reports network failures as *Error values
// classified as connection, timeout, canceled or request. HTTP status
// codes are not errors at this layer: every response that arrives is
// returned to the caller, who decides what a 401 or a 500 means. There
// are no retries here.
//
//	a, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:4000",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.BearerAuth(token),
//	})
//	resp, err := a.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
//
// DoStream returns an sse.Reader for text/event-stream responses.
package httpclient
