package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"http 429", fmt.Errorf("request failed: 429 too many requests"), FailureRateLimited},
		{"gemini resource exhausted", fmt.Errorf("rpc error: RESOURCE_EXHAUSTED"), FailureRateLimited},
		{"quota message", fmt.Errorf("quota exceeded for model"), FailureRateLimited},
		{"deadline exceeded", context.DeadlineExceeded, FailureTimeout},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), FailureTimeout},
		{"http 401", fmt.Errorf("401 unauthorized"), FailureAuth},
		{"invalid key", fmt.Errorf("invalid x-api-key"), FailureAuth},
		{"gemini permission denied", fmt.Errorf("rpc error: PERMISSION_DENIED"), FailureAuth},
		{"http 500", fmt.Errorf("500 internal server error"), FailureServer},
		{"anthropic overloaded", fmt.Errorf("overloaded, try again"), FailureServer},
		{"http 529", fmt.Errorf("request failed with status 529"), FailureServer},
		{"connection refused", fmt.Errorf("dial tcp: connection refused"), FailureUnreachable},
		{"timeout text", fmt.Errorf("request timeout awaiting headers"), FailureTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := Classify("test-provider", tt.err)
			require.NotNil(t, failure)
			assert.Equal(t, tt.want, failure.Kind)
			assert.Equal(t, "test-provider", failure.Provider)
		})
	}
}

func TestClassifyPassesThroughExistingFailure(t *testing.T) {
	original := &Failure{Provider: "gemini", Kind: FailureRateLimited, Err: fmt.Errorf("429")}

	classified := Classify("claude", original)
	assert.Same(t, original, classified)

	// Wrapped failures are unwrapped, not re-classified.
	wrapped := fmt.Errorf("batch 3: %w", original)
	classified = Classify("claude", wrapped)
	assert.Same(t, original, classified)
}

func TestAsFailure(t *testing.T) {
	failure := &Failure{Provider: "local", Kind: FailureUnreachable, Err: fmt.Errorf("connection refused")}

	assert.Same(t, failure, AsFailure(failure))
	assert.Same(t, failure, AsFailure(fmt.Errorf("wrapped: %w", failure)))
	assert.Nil(t, AsFailure(fmt.Errorf("plain error")))
}

func TestFailureErrorAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	failure := &Failure{Provider: "local", Kind: FailureUnreachable, Err: cause}

	assert.Contains(t, failure.Error(), "local")
	assert.Contains(t, failure.Error(), "unreachable")
	assert.Equal(t, cause, failure.Unwrap())
}
