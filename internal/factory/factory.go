// Package factory builds LLM backend clients from configuration.
package factory

import (
	"context"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/config"
	"fjacquet/case-categorizer/internal/llm"
	"fjacquet/case-categorizer/internal/logging"
)

// ClientFactory creates the client for one backend. It is called once per
// categorization run.
type ClientFactory func(ctx context.Context, backend llm.Backend) (llm.Client, error)

// NewClientFactory returns a ClientFactory bound to cfg.
func NewClientFactory(cfg *config.Config, logger logging.Logger) ClientFactory {
	return func(ctx context.Context, backend llm.Backend) (llm.Client, error) {
		return NewClientWithLogger(ctx, backend, cfg, logger)
	}
}

// NewClientWithLogger returns a client for the given backend. Missing
// credentials are reported as a ConfigurationError before any request is made.
func NewClientWithLogger(ctx context.Context, backend llm.Backend, cfg *config.Config, logger logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, &caseerror.ConfigurationError{Msg: "no configuration loaded"}
	}
	if logger == nil {
		logger = logging.GetLogger()
	}

	var (
		client llm.Client
		err    error
	)
	switch backend {
	case llm.OpenAI:
		if strings.TrimSpace(cfg.LLM.OpenAI.APIKey) == "" {
			return nil, missingKey(backend, "OPENAI_API_KEY")
		}
		client = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:   cfg.LLM.OpenAI.APIKey,
			Model:    cfg.LLM.OpenAI.Model,
			Endpoint: cfg.LLM.OpenAI.Endpoint,
		})
	case llm.Gemini:
		if strings.TrimSpace(cfg.LLM.Gemini.APIKey) == "" {
			return nil, missingKey(backend, "GEMINI_API_KEY")
		}
		client, err = llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey: cfg.LLM.Gemini.APIKey,
			Model:  cfg.LLM.Gemini.Model,
		})
	case llm.Ollama:
		if strings.TrimSpace(cfg.LLM.Ollama.Endpoint) == "" {
			return nil, &caseerror.ConfigurationError{
				Missing: []string{"OLLAMA_HOST"},
				Msg:     "ollama backend requires an endpoint",
			}
		}
		client = llm.NewOllamaClient(llm.OllamaConfig{
			Endpoint: cfg.LLM.Ollama.Endpoint,
			Model:    cfg.LLM.Ollama.Model,
		})
	case llm.Anthropic:
		if strings.TrimSpace(cfg.LLM.Anthropic.APIKey) == "" {
			return nil, missingKey(backend, "ANTHROPIC_API_KEY")
		}
		client = llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:    cfg.LLM.Anthropic.APIKey,
			Model:     cfg.LLM.Anthropic.Model,
			MaxTokens: cfg.LLM.Anthropic.MaxTokens,
		})
	default:
		if _, perr := llm.ParseBackend(string(backend)); perr != nil {
			return nil, perr
		}
		return nil, &caseerror.ConfigurationError{Msg: "unsupported backend " + string(backend)}
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Created LLM client",
		logging.Field{Key: logging.FieldBackend, Value: string(client.Backend())},
		logging.Field{Key: logging.FieldModel, Value: client.Model()})
	return client, nil
}

func missingKey(backend llm.Backend, envVar string) error {
	return &caseerror.ConfigurationError{
		Missing: []string{envVar},
		Msg:     string(backend) + " backend requires an API key",
	}
}
