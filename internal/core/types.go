package core

import "net/http"

// FailureKind classifies why an upstream call did not produce a payload.
type FailureKind string

const (
	FailureRateLimited  FailureKind = "rate_limited"
	FailureUpstreamHTTP FailureKind = "upstream_http"
	FailureTimeout      FailureKind = "timeout"
	FailureTransport    FailureKind = "transport"
	FailureUnexpected   FailureKind = "unexpected"
	// FailureInvalidInput is produced by tool shims before any call is made.
	FailureInvalidInput FailureKind = "invalid_input"
)

// Failure is the classified outcome of a call that did not succeed.
type Failure struct {
	Kind       FailureKind    `json:"kind"`
	Message    string         `json:"message"`
	StatusCode int            `json:"status_code,omitempty"`
	RateLimit  *RateLimitInfo `json:"rate_limit,omitempty"`
}

func (f *Failure) Error() string {
	if f == nil {
		return "unknown error"
	}
	return f.Message
}

// Result is the normalized outcome of exactly one upstream call.
//
// Exactly one of Data or Failure is meaningful: a nil Failure means success,
// and Data holds the decoded response body verbatim (possibly nil for an
// empty body).
type Result struct {
	Data    any
	Failure *Failure
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Success wraps a decoded payload.
func Success(data any) Result {
	return Result{Data: data}
}

// Fail builds a failure result.
func Fail(kind FailureKind, message string) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message}}
}

// FailStatus builds a failure result that carries the upstream status code.
func FailStatus(kind FailureKind, status int, message string) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message, StatusCode: status}}
}

// RateLimited builds a 429 failure with an optional rate-limit block.
func RateLimited(message string, info *RateLimitInfo) Result {
	return Result{Failure: &Failure{
		Kind:       FailureRateLimited,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		RateLimit:  info,
	}}
}
