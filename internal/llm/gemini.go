package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiClient calls Google's Gemini API through the generative-ai SDK.
type GeminiClient struct {
	client    *genai.Client
	generator *genai.GenerativeModel
	model     string
}

// NewGeminiClient creates a Gemini backend. The underlying connection is
// shared by all requests; call Close when done.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	generator := client.GenerativeModel(model)
	var temperature float32
	generator.Temperature = &temperature

	return &GeminiClient{client: client, generator: generator, model: model}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.generator.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", requestError(Gemini, 0, err)
	}
	text, err := geminiText(resp)
	if err != nil {
		return "", requestError(Gemini, 0, err)
	}
	return text, nil
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response (finish reason %s)", candidate.FinishReason)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", errEmptyResponse
	}
	return out, nil
}

// Close releases the SDK connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Backend implements Client.
func (c *GeminiClient) Backend() Backend { return Gemini }

// Model implements Client.
func (c *GeminiClient) Model() string { return c.model }
