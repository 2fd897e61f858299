package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies endpoint failures into the categories callers act on:
// fixing credentials, backing off, or retrying later.
type Kind int

const (
	// KindUnknown is an unclassified endpoint failure.
	KindUnknown Kind = iota

	// KindAuth is a credential problem (missing or invalid API key).
	// Never retryable.
	KindAuth

	// KindRateLimited is a quota or rate limit rejection. Retryable after
	// backoff.
	KindRateLimited

	// KindUnavailable is a transient endpoint or network failure. Retryable.
	KindUnavailable
)

// String returns the kind's wire-stable name.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindUnavailable
}

// UserMessage returns a short, actionable message safe to show end users.
// It never leaks endpoint internals.
func (k Kind) UserMessage() string {
	switch k {
	case KindAuth:
		return "The AI service rejected the configured credentials. Check your API key."
	case KindRateLimited:
		return "The AI service is rate limiting requests. Please try again in a moment."
	case KindUnavailable:
		return "The AI service is temporarily unavailable. Please try again."
	default:
		return "The AI service returned an unexpected error. Please try again."
	}
}

// EndpointError wraps a model endpoint failure with its classification.
type EndpointError struct {
	Kind Kind
	Err  error
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("model endpoint (%s): %v", e.Kind, e.Err)
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}

// Classify maps an endpoint error to its Kind by inspecting the error text.
// Provider SDKs do not expose stable error types, so string matching is the
// only portable signal.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	msg := err.Error()

	if containsAny(msg, "api key", "unauthorized", "unauthenticated", "permission denied", "401", "403") {
		return KindAuth
	}
	if containsAny(msg, "rate limit", "quota", "resource exhausted", "429") {
		return KindRateLimited
	}
	if containsAny(msg, "500", "502", "503", "504", "unavailable", "overloaded",
		"connection reset", "connection refused", "timeout", "deadline exceeded", "temporary") {
		return KindUnavailable
	}

	return KindUnknown
}

// AsEndpointError extracts an *EndpointError from err's chain, if any.
func AsEndpointError(err error) (*EndpointError, bool) {
	var ee *EndpointError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
