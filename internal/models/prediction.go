package models

import "strings"

// Certainty is the model's self-reported confidence bucket.
type Certainty string

const (
	CertaintyHigh   Certainty = "high"
	CertaintyMedium Certainty = "medium"
	CertaintyLow    Certainty = "low"
)

// NormalizeCertainty maps any casing of high/medium/low onto the canonical
// value. Other values are returned trimmed but otherwise unchanged.
func NormalizeCertainty(s string) Certainty {
	trimmed := strings.TrimSpace(s)
	switch c := Certainty(strings.ToLower(trimmed)); c {
	case CertaintyHigh, CertaintyMedium, CertaintyLow:
		return c
	default:
		return Certainty(trimmed)
	}
}

// Known reports whether c is one of the three canonical buckets.
func (c Certainty) Known() bool {
	return c == CertaintyHigh || c == CertaintyMedium || c == CertaintyLow
}

// PredictionResult is the parsed answer for one case. A failed prediction
// carries a non-empty Error and ErrorMarker in the label fields.
type PredictionResult struct {
	Category   string    `json:"category"`
	Resolution string    `json:"resolution"`
	Certainty  Certainty `json:"certainty"`
	Reasoning  string    `json:"reasoning"`
	Error      string    `json:"error,omitempty"`

	// Raw is the backend response text kept for debugging failed parses.
	Raw string `json:"-"`
}

// ErrorPrediction builds the error variant.
func ErrorPrediction(msg, raw string) PredictionResult {
	if msg == "" {
		msg = "unknown error"
	}
	return PredictionResult{
		Category:   ErrorMarker,
		Resolution: ErrorMarker,
		Certainty:  Certainty(ErrorMarker),
		Reasoning:  ErrorReasoning,
		Error:      msg,
		Raw:        raw,
	}
}

// Failed reports whether this is the error variant.
func (p PredictionResult) Failed() bool {
	return p.Error != ""
}
