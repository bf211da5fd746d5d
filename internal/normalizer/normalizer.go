// Package normalizer turns tabular rows into case records with a fixed
// recognized schema. Unrecognized columns are kept as extra fields.
package normalizer

import (
	"fmt"
	"strings"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
)

// Policy decides what happens to rows missing a required field.
type Policy string

const (
	// PolicySkip drops the row and reports a warning.
	PolicySkip Policy = "skip"
	// PolicyKeep keeps the row with the missing fields set to "".
	PolicyKeep Policy = "keep"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySkip, PolicyKeep:
		return p, nil
	case "":
		return PolicySkip, nil
	default:
		return "", &caseerror.ConfigurationError{Msg: fmt.Sprintf("unknown missing-field policy %q", s)}
	}
}

// Field is one recognized case attribute.
type Field struct {
	// Name is the attribute name used in warnings.
	Name string
	// Headers are the accepted column headers in order of preference.
	// Matching is case-sensitive.
	Headers  []string
	Required bool
}

// Schema lists the recognized fields.
type Schema struct {
	CaseNumber   Field
	Title        Field
	Description  Field
	StatusReason Field
}

// DefaultSchema is the recognized case layout.
var DefaultSchema = Schema{
	CaseNumber:   Field{Name: "CaseNumber", Headers: []string{"CaseNumber", "CaseId"}},
	Title:        Field{Name: "CaseTitle", Headers: []string{"CaseTitle", "Title"}, Required: true},
	Description:  Field{Name: "Description", Headers: []string{"Description"}, Required: true},
	StatusReason: Field{Name: "StatusReason", Headers: []string{"StatusReason"}},
}

// RowWarning reports a row that lacked required fields.
type RowWarning struct {
	// Row is the 1-based data row number, header excluded.
	Row     int      `json:"row"`
	Missing []string `json:"missing"`
	Skipped bool     `json:"skipped"`
}

func (w RowWarning) String() string {
	action := "kept with empty values"
	if w.Skipped {
		action = "skipped"
	}
	return fmt.Sprintf("row %d: missing %s (%s)", w.Row, strings.Join(w.Missing, ", "), action)
}

// Result is the outcome of normalizing one file.
type Result struct {
	Cases    []models.CaseRecord `json:"cases"`
	Warnings []RowWarning        `json:"warnings"`
	Skipped  int                 `json:"skipped"`
}

// Normalizer converts rows into case records.
type Normalizer struct {
	schema Schema
	policy Policy
	logger logging.Logger
}

// New creates a Normalizer. A nil logger uses the default logger.
func New(schema Schema, policy Policy, logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if policy == "" {
		policy = PolicySkip
	}
	return &Normalizer{schema: schema, policy: policy, logger: logger}
}

// Policy returns the missing-field policy in use.
func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Normalize converts rows in order. Row order is never changed and the
// record Index is the source row position.
func (n *Normalizer) Normalize(rows []models.Fields) Result {
	res := Result{Cases: make([]models.CaseRecord, 0, len(rows))}

	for i, row := range rows {
		record, missing := n.normalizeRow(i, row)
		if len(missing) == 0 {
			res.Cases = append(res.Cases, record)
			continue
		}

		warning := RowWarning{Row: i + 1, Missing: missing, Skipped: n.policy == PolicySkip}
		res.Warnings = append(res.Warnings, warning)
		n.logger.Warn("Case row is missing required fields",
			logging.Field{Key: logging.FieldRow, Value: warning.Row},
			logging.Field{Key: "missing", Value: strings.Join(missing, ",")},
			logging.Field{Key: logging.FieldStatus, Value: string(n.policy)})

		if warning.Skipped {
			res.Skipped++
			continue
		}
		res.Cases = append(res.Cases, record)
	}

	if res.Skipped > 0 {
		n.logger.Info("Skipped incomplete case rows",
			logging.Field{Key: logging.FieldSkipped, Value: res.Skipped},
			logging.Field{Key: logging.FieldCount, Value: len(res.Cases)})
	}
	return res
}

func (n *Normalizer) normalizeRow(index int, row models.Fields) (models.CaseRecord, []string) {
	record := models.CaseRecord{Index: index}
	claimed := make(map[string]bool)

	targets := []struct {
		field Field
		dst   *string
	}{
		{n.schema.CaseNumber, &record.CaseNumber},
		{n.schema.Title, &record.Title},
		{n.schema.Description, &record.Description},
		{n.schema.StatusReason, &record.StatusReason},
	}

	var missing []string
	for _, target := range targets {
		header, value, found := pick(row, target.field.Headers)
		if found {
			claimed[header] = true
		}
		*target.dst = value
		if target.field.Required && value == "" {
			missing = append(missing, target.field.Name)
		}
	}
	record.CaseNumberHeader = pickedHeader(row, n.schema.CaseNumber.Headers)

	row.Range(func(key string, value any) {
		if claimed[key] {
			return
		}
		record.Extra.Set(key, value)
	})
	return record, missing
}

func pickedHeader(row models.Fields, headers []string) string {
	header, _, _ := pick(row, headers)
	return header
}

// pick returns the first accepted header present in row. A later alias that
// is also present is not claimed and ends up in the extra fields.
func pick(row models.Fields, headers []string) (string, string, bool) {
	for _, h := range headers {
		if v, ok := row.Get(h); ok {
			return h, strings.TrimSpace(models.FormatValue(v)), true
		}
	}
	return "", "", false
}
