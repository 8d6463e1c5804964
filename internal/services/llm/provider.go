package llm

import "context"

// Kind identifies a text-generation backend type
type Kind string

const (
	// KindGemini uses the Google Gemini API
	KindGemini Kind = "gemini"
	// KindClaude uses the Anthropic Claude API
	KindClaude Kind = "claude"
	// KindLocal uses a llama-server-compatible localhost backend
	KindLocal Kind = "local"
)

// Request is a provider-agnostic generation request: one prompt plus a
// token and temperature budget.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Response is a provider-agnostic generation response.
type Response struct {
	Text       string
	TokensUsed int
	Provider   string
	Model      string
}

// Provider wraps one text-generation backend behind a uniform contract.
// Generate returns either a response or a *Failure; implementations never
// panic and never retry internally, retry policy belongs to the router.
type Provider interface {
	Name() string
	Kind() Kind
	Generate(ctx context.Context, req *Request) (*Response, error)
	Close() error
}
