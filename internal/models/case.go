package models

// CaseRecord is one normalized customer-service case. The four recognized
// fields are always strings; everything else in the source row is kept in
// Extra with its original header and raw value.
type CaseRecord struct {
	// Index is the zero-based position of the source row. It is the only
	// key used to pair a case with its prediction.
	Index int `json:"index"`

	CaseNumber   string `json:"caseNumber"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	StatusReason string `json:"statusReason"`

	// CaseNumberHeader is the source header the case number came from
	// (e.g. "CaseNumber" or "CaseId"), empty when the column was absent.
	CaseNumberHeader string `json:"caseNumberHeader,omitempty"`

	Extra Fields `json:"extraFields"`
}

// KnownFields returns the recognized fields under their export column names.
func (c CaseRecord) KnownFields() Fields {
	return NewFields(
		ColumnCaseNumber, c.CaseNumber,
		ColumnCaseTitle, c.Title,
		ColumnDescription, c.Description,
		ColumnStatusReason, c.StatusReason,
	)
}

// OriginalCase returns known fields followed by extra fields, the shape
// returned to API callers as "originalCase". The case number keeps its source
// header so a "CaseId" column still resolves as the case identifier when the
// payload is sent back.
func (c CaseRecord) OriginalCase() Fields {
	numberHeader := ColumnCaseNumber
	if c.CaseNumberHeader != "" {
		numberHeader = c.CaseNumberHeader
	}
	out := NewFields(
		numberHeader, c.CaseNumber,
		ColumnCaseTitle, c.Title,
		ColumnDescription, c.Description,
		ColumnStatusReason, c.StatusReason,
	)
	c.Extra.Range(func(k string, v any) {
		if out.Has(k) {
			return
		}
		out.Set(k, v)
	})
	return out
}
