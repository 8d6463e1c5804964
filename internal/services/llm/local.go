package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
)

// LocalProvider implements the Provider interface against a
// llama-server-compatible backend on localhost. It is conventionally the
// last entry in the priority order: always available, no external quota.
type LocalProvider struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     arbor.ILogger
	mockMode   bool
}

var _ Provider = (*LocalProvider)(nil)

// llamaChatRequest represents a chat request to llama-server
type llamaChatRequest struct {
	Messages    []llamaMessage `json:"messages"`
	Temperature float32        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Stream      bool           `json:"stream"`
}

// llamaMessage represents a single message in a chat request
type llamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// llamaChatResponse represents a chat response from llama-server
type llamaChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewLocalProvider creates a local provider from configuration.
func NewLocalProvider(cfg *common.ProviderConfig, logger arbor.ILogger) (*LocalProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("local provider requires an endpoint")
	}

	return &LocalProvider{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{}, // Timeout comes from the request context
		logger:     logger,
	}, nil
}

func (p *LocalProvider) Name() string { return string(KindLocal) }

func (p *LocalProvider) Kind() Kind { return KindLocal }

// SetMockMode enables canned responses without a running llama-server.
// Used by tests only.
func (p *LocalProvider) SetMockMode(enabled bool) {
	p.mockMode = enabled
}

// Generate sends one prompt to the local chat endpoint.
func (p *LocalProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.mockMode {
		return &Response{
			Text:       "Mock summary of the provided documents.",
			TokensUsed: 0,
			Provider:   p.Name(),
			Model:      p.model,
		}, nil
	}

	body, err := json.Marshal(llamaChatRequest{
		Messages: []llamaMessage{
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, Classify(p.Name(), fmt.Errorf("failed to encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, Classify(p.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, Classify(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, Classify(p.Name(), fmt.Errorf("llama-server returned %d: %s", resp.StatusCode, string(data)))
	}

	var chatResp llamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, Classify(p.Name(), fmt.Errorf("failed to decode response: %w", err))
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, Classify(p.Name(), fmt.Errorf("empty response from llama-server"))
	}

	return &Response{
		Text:       chatResp.Choices[0].Message.Content,
		TokensUsed: chatResp.Usage.TotalTokens,
		Provider:   p.Name(),
		Model:      p.model,
	}, nil
}

func (p *LocalProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
