package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kbukum/gatewayprobe/httpclient"
)

// ReasonNotSupported is the canonical reason for capability denials.
const ReasonNotSupported = "not supported"

// Phrases that mark a response as a capability denial, lower case.
var denialPhrases = []string{
	"not supported",
	"not_supported",
	"not available on your subscription",
	"does not support",
}

// Paths tried, in order, when pulling a human-readable reason from a body.
var reasonPaths = []string{"error.message", "error", "detail", "message"}

// Observation is what a probe saw: a response or a transport error.
type Observation struct {
	Response *httpclient.Response
	Err      error
}

// Decoder validates a 2xx body and returns a success summary. It returns a
// *MalformedError for a body of the wrong shape and a *DenialError when
// the body refuses the capability.
type Decoder func(body []byte) (summary string, err error)

// MalformedError reports a 2xx body that does not have the expected shape.
type MalformedError struct {
	Detail string
}

func (e *MalformedError) Error() string { return e.Detail }

// DenialError reports a 2xx body that refuses the requested capability.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string { return e.Reason }

// Classify maps an observation to an Outcome. Rules apply in order:
//
//  1. transport connection failure or cancel → unreachable
//  2. transport timeout → timeout
//  3. HTTP 401 or 403 → unauthorized
//  4. 2xx with a non-JSON body, or an "error" member without a denial,
//     or a body the decoder rejects → malformed
//  5. 2xx whose "error" member is an explicit denial → unsupported
//  6. 2xx accepted by decode → success
//  7. any other status, or a request that could not be built → unsupported
//
// A nil decode accepts any 2xx without reading the body.
func Classify(obs Observation, decode Decoder) Outcome {
	if obs.Err != nil {
		return classifyError(obs.Err)
	}
	resp := obs.Response
	if resp == nil {
		return Unreachable("no response")
	}
	status := resp.StatusCode

	if status == 401 || status == 403 {
		return Unauthorized(status, httpReason(status, resp.Body))
	}
	if !resp.IsSuccess() {
		return Unsupported(status, unsupportedReason(status, resp.Body))
	}

	if decode == nil {
		return Success(status, fmt.Sprintf("HTTP %d", status))
	}
	if !gjson.ValidBytes(resp.Body) {
		return Malformed(status, "invalid JSON body")
	}
	if e := gjson.GetBytes(resp.Body, "error"); e.Exists() && e.Type != gjson.Null {
		return envelopeOutcome(status, extractReason(resp.Body))
	}

	summary, err := decode(resp.Body)
	if err == nil {
		return Success(status, summary)
	}
	var denial *DenialError
	if errors.As(err, &denial) {
		return Unsupported(status, ReasonNotSupported)
	}
	return Malformed(status, err.Error())
}

// envelopeOutcome classifies a 2xx body that carries an error payload
// instead of a result. Only explicit denials count as unsupported.
func envelopeOutcome(status int, reason string) Outcome {
	if isDenial(reason) {
		return Unsupported(status, ReasonNotSupported)
	}
	return Malformed(status, errorBodyDetail(reason))
}

func errorBodyDetail(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "error body"
	}
	return "error body: " + Truncate(reason, MaxReasonLen)
}

// classifyError applies rules 1, 2 and 7 to an error from the transport.
func classifyError(err error) Outcome {
	detail := Truncate(err.Error(), MaxReasonLen)
	code, ok := httpclient.CodeOf(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return Timeout(detail)
		}
		return Unreachable(detail)
	}
	switch code {
	case httpclient.ErrCodeTimeout:
		return Timeout(detail)
	case httpclient.ErrCodeRequest:
		// The gateway was never contacted.
		return Unsupported(0, detail)
	default:
		return Unreachable(detail)
	}
}

// unsupportedReason describes a non-2xx refusal. Capability denials collapse
// to ReasonNotSupported; anything else keeps the status.
func unsupportedReason(status int, body []byte) string {
	reason := extractReason(body)
	if isDenial(reason) {
		return ReasonNotSupported
	}
	return httpReason(status, body)
}

func httpReason(status int, body []byte) string {
	reason := extractReason(body)
	if strings.TrimSpace(reason) == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Sprintf("HTTP %d: %s", status, Truncate(reason, MaxReasonLen))
}

// extractReason pulls a message out of an error body, falling back to the
// raw body. Callers truncate.
func extractReason(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range reasonPaths {
			r := gjson.GetBytes(body, path)
			if r.Type == gjson.String && strings.TrimSpace(r.String()) != "" {
				return r.String()
			}
		}
	}
	return string(body)
}

func isDenial(reason string) bool {
	lower := strings.ToLower(reason)
	for _, phrase := range denialPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
