package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"golang.org/x/time/rate"
)

// ClaudeProvider implements the Provider interface using the Anthropic
// Claude API.
type ClaudeProvider struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	logger  arbor.ILogger
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude provider from configuration.
func NewClaudeProvider(cfg *common.ProviderConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("claude provider requires an API key")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
	)

	p := &ClaudeProvider{
		client: client,
		model:  cfg.Model,
		logger: logger,
	}

	if interval := common.ParseDurationOr(cfg.RateLimit, 0); interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return p, nil
}

func (p *ClaudeProvider) Name() string { return string(KindClaude) }

func (p *ClaudeProvider) Kind() Kind { return KindClaude }

// Generate sends one prompt to the Claude API. A single attempt, no
// internal retries; the router owns failover.
func (p *ClaudeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, Classify(p.Name(), err)
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, Classify(p.Name(), err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, Classify(p.Name(), fmt.Errorf("empty response from Claude API"))
	}

	return &Response{
		Text:       text.String(),
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		Provider:   p.Name(),
		Model:      p.model,
	}, nil
}

func (p *ClaudeProvider) Close() error {
	return nil
}
