// Package prompt renders the backend-agnostic categorization prompt.
package prompt

import (
	"fmt"
	"strings"

	"fjacquet/case-categorizer/internal/models"
)

// Labels expected at the start of each answer line. The prediction parser
// matches the same names.
const (
	LabelCategory   = "Category"
	LabelResolution = "Resolution"
	LabelCertainty  = "Certainty"
	LabelReasoning  = "Reasoning"
)

const notProvided = "(not provided)"

// Build renders the prompt for one case against a taxonomy snapshot.
func Build(c models.CaseRecord, taxonomy models.Taxonomy) string {
	return fmt.Sprintf(`You are an assistant that categorizes customer support cases and suggests how they were resolved.
Use the case details below to choose exactly one product category and exactly one resolution type from the lists provided.
The category and resolution must match one of the listed names exactly.

Available Categories:
%s
Available Resolution Types:
%s
Customer Case Details:
Case Number: %s
Title: %s
Description: %s
Status Reason: %s

Respond with exactly four lines and nothing else, in this format:
%s: <category name>
%s: <resolution name>
%s: <High, Medium or Low>
%s: <one short paragraph explaining the choice>`,
		formatEntries(taxonomy.Categories),
		formatEntries(taxonomy.Resolutions),
		valueOrPlaceholder(c.CaseNumber),
		valueOrPlaceholder(c.Title),
		valueOrPlaceholder(singleLine(c.Description)),
		valueOrPlaceholder(c.StatusReason),
		LabelCategory, LabelResolution, LabelCertainty, LabelReasoning,
	)
}

func formatEntries(entries []models.TaxonomyEntry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(e.Name))
		if d := strings.TrimSpace(e.Description); d != "" {
			b.WriteString(": ")
			b.WriteString(singleLine(d))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// singleLine collapses line breaks so free text cannot be mistaken for an
// answer label.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func valueOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return strings.TrimSpace(s)
}
