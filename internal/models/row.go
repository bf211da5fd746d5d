package models

// AggregatedRow is one export-ready row: resolved case id, known fields,
// extra fields, prediction fields and the error column, in that order.
type AggregatedRow struct {
	CaseID string
	Failed bool
	Fields Fields
}

// CategorizedCase is the JSON shape returned by the categorization service.
type CategorizedCase struct {
	OriginalCase        Fields `json:"originalCase"`
	PredictedCategory   string `json:"predictedCategory"`
	PredictedResolution string `json:"predictedResolution"`
	PredictedCertainty  string `json:"predictedCertainty"`
	PredictedReasoning  string `json:"predictedReasoning"`
	Error               string `json:"error,omitempty"`
}

// NewCategorizedCase pairs a case with its prediction.
func NewCategorizedCase(c CaseRecord, p PredictionResult) CategorizedCase {
	return CategorizedCase{
		OriginalCase:        c.OriginalCase(),
		PredictedCategory:   p.Category,
		PredictedResolution: p.Resolution,
		PredictedCertainty:  string(p.Certainty),
		PredictedReasoning:  p.Reasoning,
		Error:               p.Error,
	}
}

// SkippedCase is the error entry returned in place of an input row that was
// not categorized because required fields were missing.
func SkippedCase(original Fields, reason string) CategorizedCase {
	p := ErrorPrediction(reason, "")
	return CategorizedCase{
		OriginalCase:        original,
		PredictedCategory:   p.Category,
		PredictedResolution: p.Resolution,
		PredictedCertainty:  string(p.Certainty),
		PredictedReasoning:  p.Reasoning,
		Error:               p.Error,
	}
}
