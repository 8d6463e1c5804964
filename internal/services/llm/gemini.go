package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface using the Google
// Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  arbor.ILogger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider from configuration.
func NewGeminiProvider(ctx context.Context, cfg *common.ProviderConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p := &GeminiProvider{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}

	if interval := common.ParseDurationOr(cfg.RateLimit, 0); interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return p, nil
}

func (p *GeminiProvider) Name() string { return string(KindGemini) }

func (p *GeminiProvider) Kind() Kind { return KindGemini }

// Generate sends one prompt to the Gemini API. A single attempt, no
// internal retries; the router owns failover.
func (p *GeminiProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, Classify(p.Name(), err)
		}
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, Classify(p.Name(), err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, Classify(p.Name(), fmt.Errorf("empty response from Gemini API"))
	}

	text := resp.Text()
	if text == "" {
		return nil, Classify(p.Name(), fmt.Errorf("empty text in Gemini response"))
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Response{
		Text:       text,
		TokensUsed: tokens,
		Provider:   p.Name(),
		Model:      p.model,
	}, nil
}

func (p *GeminiProvider) Close() error {
	p.client = nil
	return nil
}
