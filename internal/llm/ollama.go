package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// DefaultOllamaEndpoint is the address of a local Ollama server.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaConfig configures an OllamaClient.
type OllamaConfig struct {
	Endpoint   string
	Model      string
	HTTPClient *http.Client
}

// OllamaClient calls a local or remote Ollama server.
type OllamaClient struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaClient creates an Ollama backend. An endpoint without a scheme,
// as commonly found in OLLAMA_HOST, is treated as plain http.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	c := &OllamaClient{
		endpoint: normalizeEndpoint(cfg.Endpoint),
		model:    cfg.Model,
		client:   cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = "llama3"
	}
	if c.client == nil {
		c.client = defaultHTTPClient()
	}
	return c
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return DefaultOllamaEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Complete implements Client.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}

	var resp ollamaGenerateResponse
	if err := postJSON(ctx, c.client, Ollama, c.endpoint+"/api/generate", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", requestError(Ollama, 0, errors.New(resp.Error))
	}

	text := strings.TrimSpace(resp.Response)
	if text == "" {
		return "", requestError(Ollama, 0, errEmptyResponse)
	}
	return text, nil
}

// Backend implements Client.
func (c *OllamaClient) Backend() Backend { return Ollama }

// Model implements Client.
func (c *OllamaClient) Model() string { return c.model }
