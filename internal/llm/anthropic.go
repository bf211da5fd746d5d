package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig configures an AnthropicClient.
type AnthropicConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	// BaseURL overrides the API host, mainly for tests.
	BaseURL string
}

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates an Anthropic backend. SDK retries are disabled
// so each case results in exactly one request.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
	}
	if c.model == "" {
		c.model = "claude-3-5-haiku-latest"
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 1024
	}
	return c
}

// Complete implements Client.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", requestError(Anthropic, apiErr.StatusCode, err)
		}
		return "", requestError(Anthropic, 0, err)
	}

	var parts []string
	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return "", requestError(Anthropic, 0, errEmptyResponse)
	}
	return text, nil
}

// Backend implements Client.
func (c *AnthropicClient) Backend() Backend { return Anthropic }

// Model implements Client.
func (c *AnthropicClient) Model() string { return c.model }
