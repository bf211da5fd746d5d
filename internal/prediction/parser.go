// Package prediction extracts the four labeled answer fields from backend
// response text.
package prediction

import (
	"encoding/json"
	"regexp"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/prompt"
)

var fieldOrder = []string{
	strings.ToLower(prompt.LabelCategory),
	strings.ToLower(prompt.LabelResolution),
	strings.ToLower(prompt.LabelCertainty),
	strings.ToLower(prompt.LabelReasoning),
}

// labelPattern matches "Category: x", "CATEGORY - x", "**Category:** x",
// "- **Category**: x", "1. Category: x" and similar variants. A dash
// separator must be followed by whitespace, so "Resolution-wise" is prose.
var labelPattern = regexp.MustCompile(`(?i)^\s*(?:\d+[.)]\s+)?(?:[-*>#]+\s+)?\**\s*(category|resolution|certainty|reasoning)\s*\**\s*(:|-(?:\s|$))\s*\**\s*(.*)$`)

// Parse extracts a prediction from raw response text. It never fails: text
// lacking any of the four fields yields the error variant with the raw text
// attached.
func Parse(raw string) models.PredictionResult {
	result, err := ParseStrict(raw)
	if err != nil {
		return models.ErrorPrediction(err.Error(), raw)
	}
	return result
}

// ParseStrict is like Parse but reports a *caseerror.ParseError instead of
// building the error variant.
func ParseStrict(raw string) (models.PredictionResult, error) {
	values := parseLabeled(raw)
	if len(values) == 0 {
		values = parseJSON(raw)
	}

	var missing []string
	for _, name := range fieldOrder {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return models.PredictionResult{}, &caseerror.ParseError{Missing: missing, Raw: raw}
	}

	return models.PredictionResult{
		Category:   cleanName(values["category"]),
		Resolution: cleanName(values["resolution"]),
		Certainty:  models.NormalizeCertainty(strings.TrimRight(cleanName(values["certainty"]), ".!")),
		Reasoning:  values["reasoning"],
		Raw:        raw,
	}, nil
}

// parseLabeled scans line by line. An unlabeled line continues the most
// recent field until a blank line. The first occurrence of a label wins.
// The first label fixes the separator: later lines using the other one are
// continuation text.
func parseLabeled(raw string) map[string]string {
	values := make(map[string]string)
	current := ""
	separator := ""

	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			current = ""
			continue
		}
		m := labelPattern.FindStringSubmatch(line)
		if m != nil {
			sep := strings.TrimSpace(m[2])
			if separator == "" {
				separator = sep
			} else if sep != separator {
				m = nil
			}
		}
		if m != nil {
			name := strings.ToLower(m[1])
			if _, seen := values[name]; seen {
				current = ""
				continue
			}
			values[name] = stripEmphasis(m[3])
			current = name
			continue
		}
		if trimmed == "" {
			current = ""
			continue
		}
		if current != "" {
			values[current] = strings.TrimSpace(values[current] + " " + stripEmphasis(trimmed))
		}
	}
	return values
}

// parseJSON accepts a JSON object with the four keys, optionally wrapped in
// prose or a code fence.
func parseJSON(raw string) map[string]string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &obj); err != nil {
		return nil
	}

	values := make(map[string]string)
	for k, v := range obj {
		name := strings.ToLower(strings.TrimSpace(k))
		s, ok := v.(string)
		if !ok {
			continue
		}
		for _, want := range fieldOrder {
			if name == want {
				values[name] = strings.TrimSpace(s)
			}
		}
	}
	return values
}

func stripEmphasis(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_")
	return strings.TrimSpace(s)
}

// cleanName removes quotes or brackets a model sometimes wraps around a
// single-value answer.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"[", "]"}, {"`", "`"}} {
		if len(s) >= 2 && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
