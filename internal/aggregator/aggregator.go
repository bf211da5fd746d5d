// Package aggregator merges cases with their predictions into export rows.
package aggregator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"fjacquet/case-categorizer/internal/models"
)

// MaxTitleIDLength is the number of title characters kept when the title
// stands in for a missing case identifier.
const MaxTitleIDLength = 30

// renamedSuffix is appended to an original column whose name collides with
// a generated export column.
const renamedSuffix = " (original)"

// idCandidates are normalized column names recognized as case identifiers.
var idCandidates = map[string]bool{
	"caseid":    true,
	"case_id":   true,
	"id":        true,
	"ticketid":  true,
	"ticket_id": true,
}

// errMissingPrediction fills cases that have no prediction at their index.
const errMissingPrediction = "no prediction was produced for this case"

// Aggregate pairs cases[i] with predictions[i]. Correlation is positional
// only. A case without a matching prediction gets the error variant; surplus
// predictions are ignored.
func Aggregate(cases []models.CaseRecord, predictions []models.PredictionResult) []models.AggregatedRow {
	rows := make([]models.AggregatedRow, len(cases))
	for i, c := range cases {
		p := models.ErrorPrediction(errMissingPrediction, "")
		if i < len(predictions) {
			p = predictions[i]
		}
		rows[i] = buildRow(ResolveCaseID(c, i), caseColumns(c), p)
	}
	return rows
}

// FromCategorized rebuilds export rows from service results, for example
// when a client posts them back for export.
func FromCategorized(results []models.CategorizedCase) []models.AggregatedRow {
	rows := make([]models.AggregatedRow, len(results))
	for i, r := range results {
		p := models.PredictionResult{
			Category:   r.PredictedCategory,
			Resolution: r.PredictedResolution,
			Certainty:  models.Certainty(r.PredictedCertainty),
			Reasoning:  r.PredictedReasoning,
			Error:      r.Error,
		}
		id := resolveFromFields(r.OriginalCase, titleOf(r.OriginalCase), i)
		rows[i] = buildRow(id, r.OriginalCase, p)
	}
	return rows
}

// ToCategorized converts cases and predictions into the service response
// shape. Lengths are reconciled the same way as Aggregate.
func ToCategorized(cases []models.CaseRecord, predictions []models.PredictionResult) []models.CategorizedCase {
	out := make([]models.CategorizedCase, len(cases))
	for i, c := range cases {
		p := models.ErrorPrediction(errMissingPrediction, "")
		if i < len(predictions) {
			p = predictions[i]
		}
		out[i] = models.NewCategorizedCase(c, p)
	}
	return out
}

// ResolveCaseID picks a display identifier for a case. It is cosmetic and
// never used to match predictions to cases. position is the zero-based
// position of the case in its batch.
func ResolveCaseID(c models.CaseRecord, position int) string {
	var named models.Fields
	if c.CaseNumberHeader != "" {
		named.Set(c.CaseNumberHeader, c.CaseNumber)
	}
	c.Extra.Range(func(k string, v any) {
		named.Set(k, v)
	})
	return resolveFromFields(named, c.Title, position)
}

func resolveFromFields(fields models.Fields, title string, position int) string {
	id := ""
	fields.Range(func(k string, v any) {
		if id != "" || !idCandidates[normalizeColumn(k)] {
			return
		}
		id = strings.TrimSpace(models.FormatValue(v))
	})
	if id != "" {
		return id
	}

	if title = strings.TrimSpace(title); title != "" {
		return truncate(title, MaxTitleIDLength)
	}
	return fmt.Sprintf("Case %d", position+1)
}

func titleOf(fields models.Fields) string {
	if t := fields.GetString(models.ColumnCaseTitle); t != "" {
		return t
	}
	return fields.GetString("Title")
}

// normalizeColumn lower-cases name and removes all whitespace.
func normalizeColumn(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func caseColumns(c models.CaseRecord) models.Fields {
	out := c.KnownFields()
	c.Extra.Range(func(k string, v any) {
		out.Set(uniqueName(out, k), v)
	})
	return out
}

var generatedColumns = func() map[string]bool {
	m := map[string]bool{models.ColumnCaseID: true}
	for _, c := range models.PredictionColumns {
		m[c] = true
	}
	return m
}()

// uniqueName renames k when it collides with a generated column or with a
// column already present.
func uniqueName(existing models.Fields, k string) string {
	name := k
	for generatedColumns[name] || existing.Has(name) {
		name += renamedSuffix
	}
	return name
}

func buildRow(caseID string, original models.Fields, p models.PredictionResult) models.AggregatedRow {
	var fields models.Fields
	fields.Set(models.ColumnCaseID, caseID)
	original.Range(func(k string, v any) {
		fields.Set(uniqueName(fields, k), v)
	})
	fields.Set(models.ColumnPredictedCategory, p.Category)
	fields.Set(models.ColumnPredictedResolution, p.Resolution)
	fields.Set(models.ColumnPredictedCertainty, string(p.Certainty))
	fields.Set(models.ColumnPredictedReasoning, p.Reasoning)
	fields.Set(models.ColumnError, p.Error)

	return models.AggregatedRow{
		CaseID: caseID,
		Failed: p.Failed(),
		Fields: fields,
	}
}
