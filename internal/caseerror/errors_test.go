package caseerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	inner := errors.New("bare \" in non-quoted field")
	err := &ValidationError{Source: "cases.csv", Reason: "malformed CSV", Err: inner}

	assert.Equal(t, `validation failed for cases.csv: malformed CSV: bare " in non-quoted field`, err.Error())
	assert.ErrorIs(t, err, inner)
	assert.True(t, IsValidation(fmt.Errorf("upload: %w", err)))
	assert.False(t, IsConfiguration(err))
}

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigurationError
		want string
	}{
		{
			name: "missing only",
			err:  &ConfigurationError{Missing: []string{"categories", "resolutions"}},
			want: "configuration error: missing categories, resolutions",
		},
		{
			name: "message only",
			err:  &ConfigurationError{Msg: "unsupported model: gpt-j"},
			want: "configuration error: unsupported model: gpt-j",
		},
		{
			name: "both",
			err:  &ConfigurationError{Msg: "cannot categorize", Missing: []string{"selected model"}},
			want: "configuration error: cannot categorize (missing: selected model)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, IsConfiguration(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestRequestError(t *testing.T) {
	inner := errors.New("quota exceeded")

	withStatus := &RequestError{Backend: "openai", StatusCode: 429, Err: inner}
	assert.Equal(t, "openai request failed with status 429: quota exceeded", withStatus.Error())
	assert.ErrorIs(t, withStatus, inner)

	transport := &RequestError{Backend: "ollama", Err: inner}
	assert.Equal(t, "ollama request failed: quota exceeded", transport.Error())
}

func TestParseError(t *testing.T) {
	err := &ParseError{Missing: []string{"reasoning"}, Raw: "Category: X"}
	assert.Equal(t, "could not parse prediction: missing reasoning", err.Error())
}
