// Package caseerror defines the typed errors shared by the categorization
// pipeline.
package caseerror

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports an input file or request body that cannot be used.
type ValidationError struct {
	Source string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed for %s: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports configuration that must be fixed before any
// case can be sent to a backend. Missing lists what is absent.
type ConfigurationError struct {
	Missing []string
	Msg     string
}

func (e *ConfigurationError) Error() string {
	switch {
	case len(e.Missing) > 0 && e.Msg != "":
		return fmt.Sprintf("configuration error: %s (missing: %s)", e.Msg, strings.Join(e.Missing, ", "))
	case len(e.Missing) > 0:
		return fmt.Sprintf("configuration error: missing %s", strings.Join(e.Missing, ", "))
	default:
		return "configuration error: " + e.Msg
	}
}

// RequestError represents a failed call to an LLM backend for one case.
type RequestError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed with status %d: %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ParseError represents a backend response that does not carry the expected
// labeled fields.
type ParseError struct {
	Missing []string
	Raw     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse prediction: missing %s", strings.Join(e.Missing, ", "))
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
