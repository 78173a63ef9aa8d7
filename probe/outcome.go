package probe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind tags a probe outcome.
type Kind string

// Outcome kinds.
const (
	KindSuccess      Kind = "success"
	KindUnreachable  Kind = "unreachable"
	KindUnauthorized Kind = "unauthorized"
	KindUnsupported  Kind = "unsupported"
	KindTimeout      Kind = "timeout"
	KindMalformed    Kind = "malformed"
)

const (
	// MaxSummaryLen bounds success summaries.
	MaxSummaryLen = 80
	// MaxReasonLen bounds body excerpts used as failure reasons.
	MaxReasonLen = 120
)

// Outcome is the result of one probe execution.
type Outcome struct {
	// Kind is the outcome tag.
	Kind Kind `json:"outcome" yaml:"outcome"`
	// Detail is the success summary or the failure reason.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	// Status is the HTTP status code, when a response was received.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`
}

// Success returns a success outcome with a shortened summary.
func Success(status int, summary string) Outcome {
	return Outcome{Kind: KindSuccess, Detail: Truncate(summary, MaxSummaryLen), Status: status}
}

// Unreachable returns an outcome for a failed connection.
func Unreachable(detail string) Outcome {
	return Outcome{Kind: KindUnreachable, Detail: detail}
}

// Timeout returns an outcome for a probe that exceeded its deadline.
func Timeout(detail string) Outcome {
	return Outcome{Kind: KindTimeout, Detail: detail}
}

// Unauthorized returns an outcome for a rejected credential.
func Unauthorized(status int, reason string) Outcome {
	return Outcome{Kind: KindUnauthorized, Detail: reason, Status: status}
}

// Unsupported returns an outcome for a capability the gateway refused.
func Unsupported(status int, reason string) Outcome {
	return Outcome{Kind: KindUnsupported, Detail: reason, Status: status}
}

// Malformed returns an outcome for a response of the wrong shape.
func Malformed(status int, detail string) Outcome {
	return Outcome{Kind: KindMalformed, Detail: detail, Status: status}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Retryable reports whether repeating the probe could change the outcome.
// Only timeouts qualify.
func (o Outcome) Retryable() bool { return o.Kind == KindTimeout }

func (o Outcome) String() string {
	if o.Detail == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Detail)
}

// Truncate collapses whitespace in s and cuts it to at most n runes,
// marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}
