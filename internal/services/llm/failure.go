package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FailureKind classifies why a provider call failed. The router uses the
// kind to decide between cooling a provider down and simply moving on.
type FailureKind string

const (
	FailureRateLimited FailureKind = "rate_limited"
	FailureTimeout     FailureKind = "timeout"
	FailureAuth        FailureKind = "auth_error"
	FailureServer      FailureKind = "server_error"
	FailureUnreachable FailureKind = "unreachable"
)

// Failure is a typed provider failure propagated as data, not control flow.
type Failure struct {
	Provider string
	Kind     FailureKind
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("provider %s failed (%s): %v", f.Provider, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a *Failure from an error chain, or nil.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

// Classify wraps a raw provider error into a typed Failure. Matching is
// necessarily string-based for hosted APIs: both SDKs surface HTTP status
// text in the error message.
func Classify(provider string, err error) *Failure {
	if f := AsFailure(err); f != nil {
		return f
	}

	kind := FailureUnreachable

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = FailureTimeout
	case isRateLimitError(err):
		kind = FailureRateLimited
	case isAuthError(err):
		kind = FailureAuth
	case isServerError(err):
		kind = FailureServer
	case isTimeoutError(err):
		kind = FailureTimeout
	}

	return &Failure{Provider: provider, Kind: kind, Err: err}
}

// isRateLimitError matches 429 status codes and RESOURCE_EXHAUSTED errors.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "quota")
}

func isAuthError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "UNAUTHENTICATED") ||
		strings.Contains(errStr, "invalid x-api-key") ||
		strings.Contains(errStr, "API key")
}

func isServerError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "529") ||
		strings.Contains(errStr, "INTERNAL") ||
		strings.Contains(errStr, "overloaded")
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "deadline exceeded") ||
		strings.Contains(err.Error(), "timeout")
}
