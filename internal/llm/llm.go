// Package llm provides the text-completion backends used to categorize
// cases. Every backend is reduced to one capability: given a prompt, return
// the model's text answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
)

// Backend identifies one LLM provider integration.
type Backend string

const (
	OpenAI    Backend = "openai"
	Gemini    Backend = "gemini"
	Ollama    Backend = "ollama"
	Anthropic Backend = "anthropic"
)

// Backends returns every supported backend in display order.
func Backends() []Backend {
	return []Backend{OpenAI, Gemini, Ollama, Anthropic}
}

// ParseBackend maps a selected-model value onto a Backend. Matching ignores
// case and surrounding whitespace. Empty or unknown values are configuration
// errors.
func ParseBackend(s string) (Backend, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return "", &caseerror.ConfigurationError{Missing: []string{"selected backend"}}
	}
	for _, b := range Backends() {
		if Backend(name) == b {
			return b, nil
		}
	}
	return "", &caseerror.ConfigurationError{
		Msg: fmt.Sprintf("unsupported backend %q (expected one of %s)", s, joinBackends()),
	}
}

func joinBackends() string {
	names := make([]string, 0, len(Backends()))
	for _, b := range Backends() {
		names = append(names, string(b))
	}
	return strings.Join(names, ", ")
}

// Client is a text-completion backend. Implementations must be safe for
// concurrent use.
type Client interface {
	// Complete sends prompt and returns the answer text. Transport errors,
	// non-success statuses, API-reported errors and empty answers are all
	// returned as errors.
	Complete(ctx context.Context, prompt string) (string, error)
	// Backend reports which provider this client talks to.
	Backend() Backend
	// Model reports the model name sent with each request.
	Model() string
}

// requestError wraps err as a RequestError for backend b.
func requestError(b Backend, status int, err error) error {
	return &caseerror.RequestError{Backend: string(b), StatusCode: status, Err: err}
}

// errEmptyResponse is reported when a backend answers with no text.
var errEmptyResponse = errors.New("empty response")
