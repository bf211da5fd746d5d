package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultOpenAIEndpoint is the chat completions URL.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewOpenAIClient creates an OpenAI backend.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: cfg.Endpoint,
		client:   cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = "gpt-4o-mini"
	}
	if c.endpoint == "" {
		c.endpoint = DefaultOpenAIEndpoint
	}
	if c.client == nil {
		c.client = defaultHTTPClient()
	}
	return c
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := openAIRequest{
		Model:    c.model,
		Messages: []openAIMessage{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var resp openAIResponse
	if err := postJSON(ctx, c.client, OpenAI, c.endpoint, headers, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", requestError(OpenAI, 0, errors.New(resp.Error.Message))
	}
	if len(resp.Choices) == 0 {
		return "", requestError(OpenAI, 0, fmt.Errorf("no choices in response"))
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		if reason := resp.Choices[0].FinishReason; reason != "" && reason != "stop" {
			return "", requestError(OpenAI, 0, fmt.Errorf("no content (finish reason %s)", reason))
		}
		return "", requestError(OpenAI, 0, errEmptyResponse)
	}
	return text, nil
}

// Backend implements Client.
func (c *OpenAIClient) Backend() Backend { return OpenAI }

// Model implements Client.
func (c *OpenAIClient) Model() string { return c.model }
