package llm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// stubProvider is a scriptable Provider for router tests. respond receives
// the 1-based call number so tests can vary behavior per attempt.
type stubProvider struct {
	name    string
	respond func(call int) (*Response, error)

	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) Kind() Kind   { return KindLocal }
func (p *stubProvider) Close() error { return nil }

func (p *stubProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()
	return p.respond(call)
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func alwaysSucceed(name string) *stubProvider {
	return &stubProvider{
		name: name,
		respond: func(int) (*Response, error) {
			return &Response{Text: "summary from " + name, Provider: name}, nil
		},
	}
}

func alwaysFail(name string, err error) *stubProvider {
	return &stubProvider{
		name: name,
		respond: func(int) (*Response, error) {
			return nil, err
		},
	}
}

func TestNewRouterValidation(t *testing.T) {
	logger := arbor.NewLogger()

	_, err := NewRouter(nil, logger)
	assert.Error(t, err)

	_, err = NewRouter([]Slot{{Provider: nil}}, logger)
	assert.Error(t, err)
}

func TestNewRouterDefaults(t *testing.T) {
	router, err := NewRouter([]Slot{{Provider: alwaysSucceed("a")}}, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, router.entries[0].Timeout)
	assert.Equal(t, 60*time.Second, router.entries[0].Window)
}

func TestGenerateShortCircuitsOnFirstSuccess(t *testing.T) {
	first := alwaysSucceed("first")
	second := alwaysSucceed("second")

	router, err := NewRouter([]Slot{
		{Provider: first},
		{Provider: second},
	}, arbor.NewLogger())
	require.NoError(t, err)

	resp, err := router.Generate(context.Background(), "prompt", 256, 0.3)
	require.NoError(t, err)

	assert.Equal(t, "first", resp.Provider)
	assert.Equal(t, 1, first.callCount())
	assert.Equal(t, 0, second.callCount())
}

func TestGenerateFailsOverInPriorityOrder(t *testing.T) {
	first := alwaysFail("first", fmt.Errorf("429 too many requests"))
	second := alwaysSucceed("second")

	router, err := NewRouter([]Slot{
		{Provider: first},
		{Provider: second},
	}, arbor.NewLogger())
	require.NoError(t, err)

	resp, err := router.Generate(context.Background(), "prompt", 256, 0.3)
	require.NoError(t, err)

	assert.Equal(t, "second", resp.Provider)
	assert.Equal(t, 1, first.callCount())
	assert.Equal(t, 1, second.callCount())
}

func TestGenerateRateLimitCoolsProviderDown(t *testing.T) {
	first := alwaysFail("first", fmt.Errorf("429 too many requests"))
	second := alwaysSucceed("second")

	router, err := NewRouter([]Slot{
		{Provider: first, Window: 60 * time.Second},
		{Provider: second},
	}, arbor.NewLogger())
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	router.clock = func() time.Time { return now }

	_, err = router.Generate(context.Background(), "prompt", 256, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 1, first.callCount())

	// Within the cool-down the rate-limited provider is skipped entirely.
	now = now.Add(30 * time.Second)
	_, err = router.Generate(context.Background(), "prompt", 256, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 1, first.callCount())
	assert.Equal(t, 2, second.callCount())

	// After the cool-down it is attempted again.
	now = now.Add(31 * time.Second)
	_, err = router.Generate(context.Background(), "prompt", 256, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 2, first.callCount())
}

func TestGenerateRespectsQuotaWindow(t *testing.T) {
	first := alwaysSucceed("first")
	second := alwaysSucceed("second")

	router, err := NewRouter([]Slot{
		{Provider: first, RequestLimit: 2, Window: 60 * time.Second},
		{Provider: second},
	}, arbor.NewLogger())
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	router.clock = func() time.Time { return now }

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := router.Generate(ctx, "prompt", 256, 0.3)
		require.NoError(t, err)
		assert.Equal(t, "first", resp.Provider)
	}

	// Quota exhausted: next call skips to the second provider without
	// touching the first.
	resp, err := router.Generate(ctx, "prompt", 256, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Provider)
	assert.Equal(t, 2, first.callCount())

	// A new window restores the first provider.
	now = now.Add(61 * time.Second)
	resp, err = router.Generate(ctx, "prompt", 256, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Provider)
	assert.Equal(t, 3, first.callCount())
}

func TestGenerateAllProvidersFailed(t *testing.T) {
	router, err := NewRouter([]Slot{
		{Provider: alwaysFail("first", fmt.Errorf("503 service unavailable"))},
		{Provider: alwaysFail("second", fmt.Errorf("connection refused"))},
	}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = router.Generate(context.Background(), "prompt", 256, 0.3)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
}

func TestGenerateCancelledContextStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := &stubProvider{
		name: "first",
		respond: func(int) (*Response, error) {
			cancel()
			return nil, fmt.Errorf("500 internal error")
		},
	}
	second := alwaysSucceed("second")

	router, err := NewRouter([]Slot{
		{Provider: first},
		{Provider: second},
	}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = router.Generate(ctx, "prompt", 256, 0.3)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, 0, second.callCount())
}

func TestGeneratePreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := alwaysSucceed("first")
	router, err := NewRouter([]Slot{{Provider: first}}, arbor.NewLogger())
	require.NoError(t, err)

	_, err = router.Generate(ctx, "prompt", 256, 0.3)
	assert.Error(t, err)
	assert.Equal(t, 0, first.callCount())
}

func TestProvidersReportsPriorityOrder(t *testing.T) {
	router, err := NewRouter([]Slot{
		{Provider: alwaysSucceed("gemini")},
		{Provider: alwaysSucceed("claude")},
		{Provider: alwaysSucceed("local")},
	}, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"gemini", "claude", "local"}, router.Providers())
}
