package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// ErrAllProvidersFailed is returned when every configured provider was
// skipped or failed within one Generate call. The router never constructs
// text itself; callers supply a non-LLM fallback.
var ErrAllProvidersFailed = errors.New("all providers failed or unavailable")

// Slot configures one provider in the failover chain.
type Slot struct {
	Provider Provider

	// Timeout bounds each attempt. The effective timeout is
	// min(Timeout, remaining context budget).
	Timeout time.Duration

	// RequestLimit is the maximum successful requests per Window.
	// Zero means unlimited (the local fallback).
	RequestLimit int

	// Window is the rolling quota interval. It doubles as the cool-down
	// applied when the provider reports a rate limit.
	Window time.Duration
}

// quotaState tracks per-provider quota inside one window. Guarded by its
// own mutex; providers are independent so there is no global lock.
type quotaState struct {
	mu               sync.Mutex
	requestsInWindow int
	windowResetAt    time.Time
	disabledUntil    time.Time
}

type slotEntry struct {
	Slot
	quota quotaState
}

// available reports whether the provider may be called now, lazily
// resetting the window. It never blocks.
func (e *slotEntry) available(now time.Time) bool {
	e.quota.mu.Lock()
	defer e.quota.mu.Unlock()

	if now.Before(e.quota.disabledUntil) {
		return false
	}

	if !now.Before(e.quota.windowResetAt) {
		e.quota.requestsInWindow = 0
		e.quota.windowResetAt = now.Add(e.Window)
	}

	if e.RequestLimit > 0 && e.quota.requestsInWindow >= e.RequestLimit {
		return false
	}

	return true
}

func (e *slotEntry) recordSuccess() {
	e.quota.mu.Lock()
	e.quota.requestsInWindow++
	e.quota.mu.Unlock()
}

// coolDown disables the provider until the quota window has passed, so the
// next Generate call skips it without re-attempting.
func (e *slotEntry) coolDown(now time.Time) {
	e.quota.mu.Lock()
	e.quota.disabledUntil = now.Add(e.Window)
	e.quota.mu.Unlock()
}

// Router tries providers in fixed priority order until one succeeds.
// Success short-circuits; failures are classified and either cool the
// provider down (rate limits) or advance to the next provider.
type Router struct {
	entries []*slotEntry
	logger  arbor.ILogger
	clock   func() time.Time
}

// NewRouter creates a failover router over the given provider slots in
// priority order. An empty slot list is a construction-time error.
func NewRouter(slots []Slot, logger arbor.ILogger) (*Router, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("failover router requires at least one provider")
	}

	entries := make([]*slotEntry, 0, len(slots))
	for i, slot := range slots {
		if slot.Provider == nil {
			return nil, fmt.Errorf("provider slot %d is nil", i)
		}
		if slot.Timeout <= 0 {
			slot.Timeout = 30 * time.Second
		}
		if slot.Window <= 0 {
			slot.Window = 60 * time.Second
		}
		entries = append(entries, &slotEntry{Slot: slot})
	}

	return &Router{
		entries: entries,
		logger:  logger,
		clock:   time.Now,
	}, nil
}

// Providers returns the provider names in priority order, for diagnostics.
func (r *Router) Providers() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Provider.Name()
	}
	return names
}

// Generate tries each provider in priority order with the given prompt.
// The first success wins and no further providers are attempted. Quota and
// cool-down state is consulted before every attempt so an already
// rate-limited provider is skipped without a network call.
func (r *Router) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := &Request{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	for _, entry := range r.entries {
		now := r.clock()
		if !entry.available(now) {
			r.logger.Debug().
				Str("provider", entry.Provider.Name()).
				Msg("Provider skipped: quota exhausted or cooling down")
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, entry.Timeout)
		resp, err := entry.Provider.Generate(attemptCtx, req)
		cancel()

		if err == nil {
			entry.recordSuccess()
			r.logger.Debug().
				Str("provider", entry.Provider.Name()).
				Int("tokens_used", resp.TokensUsed).
				Msg("Generation succeeded")
			return resp, nil
		}

		failure := Classify(entry.Provider.Name(), err)
		if failure.Kind == FailureRateLimited {
			entry.coolDown(r.clock())
			r.logger.Warn().
				Str("provider", entry.Provider.Name()).
				Str("cool_down", entry.Window.String()).
				Msg("Provider rate limited, cooling down")
		} else {
			r.logger.Warn().
				Str("provider", entry.Provider.Name()).
				Str("failure_kind", string(failure.Kind)).
				Err(failure.Err).
				Msg("Provider failed, trying next")
		}

		// A cancelled run stops the chain; remaining work falls back to
		// rule-based summaries at the caller.
		if ctx.Err() != nil {
			return nil, ErrAllProvidersFailed
		}
	}

	return nil, ErrAllProvidersFailed
}

// Close closes all providers in the chain.
func (r *Router) Close() error {
	var firstErr error
	for _, entry := range r.entries {
		if err := entry.Provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
