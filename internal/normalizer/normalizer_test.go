package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
)

func TestNormalize_AllHeadersPresent(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("CaseNumber", "C1", "CaseTitle", "Cannot log in", "Description", "User gets 500 error",
			"StatusReason", "Open", "Region", "EU", "Priority", json.Number("2")),
		models.NewFields("CaseNumber", "C2", "CaseTitle", "Slow", "Description", "Pages load slowly",
			"StatusReason", "Closed", "Region", "US", "Priority", json.Number("1")),
	}

	res := New(DefaultSchema, PolicySkip, logging.NewMockLogger()).Normalize(rows)

	require.Len(t, res.Cases, 2)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Warnings)

	first := res.Cases[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "C1", first.CaseNumber)
	assert.Equal(t, "CaseNumber", first.CaseNumberHeader)
	assert.Equal(t, "Cannot log in", first.Title)
	assert.Equal(t, "User gets 500 error", first.Description)
	assert.Equal(t, "Open", first.StatusReason)
	assert.Equal(t, []string{"Region", "Priority"}, first.Extra.Keys())

	// Extra values are passed through untouched.
	for i, c := range res.Cases {
		for _, key := range []string{"Region", "Priority"} {
			want, _ := rows[i].Get(key)
			got, ok := c.Extra.Get(key)
			require.True(t, ok)
			assert.Equal(t, want, got)
		}
	}
	assert.Equal(t, 1, res.Cases[1].Index)
}

func TestNormalize_Aliases(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("CaseId", "42", "Title", "Alias title", "Description", "d"),
	}
	res := New(DefaultSchema, PolicySkip, logging.NewMockLogger()).Normalize(rows)
	require.Len(t, res.Cases, 1)
	c := res.Cases[0]
	assert.Equal(t, "42", c.CaseNumber)
	assert.Equal(t, "CaseId", c.CaseNumberHeader)
	assert.Equal(t, "Alias title", c.Title)
	assert.Zero(t, c.Extra.Len())
}

func TestNormalize_BothAliasesKeepsSecondAsExtra(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("CaseId", "42", "CaseNumber", "C-42", "CaseTitle", "t", "Description", "d"),
	}
	res := New(DefaultSchema, PolicySkip, logging.NewMockLogger()).Normalize(rows)
	require.Len(t, res.Cases, 1)
	assert.Equal(t, "C-42", res.Cases[0].CaseNumber)
	assert.Equal(t, "42", res.Cases[0].Extra.GetString("CaseId"))
}

func TestNormalize_HeadersAreCaseSensitive(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("casetitle", "lower", "CaseTitle", "real", "Description", "d"),
	}
	res := New(DefaultSchema, PolicySkip, logging.NewMockLogger()).Normalize(rows)
	require.Len(t, res.Cases, 1)
	assert.Equal(t, "real", res.Cases[0].Title)
	assert.Equal(t, "lower", res.Cases[0].Extra.GetString("casetitle"))
}

func TestNormalize_MissingFieldPolicies(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("CaseTitle", "ok", "Description", "d"),
		models.NewFields("CaseTitle", "  ", "Description", "d"),
		models.NewFields("CaseNumber", "C3"),
		models.NewFields("CaseTitle", "also ok", "Description", "d"),
	}

	t.Run("skip", func(t *testing.T) {
		logger := logging.NewMockLogger()
		res := New(DefaultSchema, PolicySkip, logger).Normalize(rows)

		require.Len(t, res.Cases, 2)
		assert.Equal(t, 2, res.Skipped)
		assert.Equal(t, 0, res.Cases[0].Index)
		assert.Equal(t, 3, res.Cases[1].Index)
		require.Len(t, res.Warnings, 2)
		assert.Equal(t, RowWarning{Row: 2, Missing: []string{"CaseTitle"}, Skipped: true}, res.Warnings[0])
		assert.Equal(t, RowWarning{Row: 3, Missing: []string{"CaseTitle", "Description"}, Skipped: true}, res.Warnings[1])
		assert.Equal(t, "row 3: missing CaseTitle, Description (skipped)", res.Warnings[1].String())
		assert.Len(t, logger.GetEntriesByLevel("WARN"), 2)
		assert.True(t, logger.HasEntry("INFO", "Skipped incomplete case rows"))
	})

	t.Run("keep", func(t *testing.T) {
		res := New(DefaultSchema, PolicyKeep, logging.NewMockLogger()).Normalize(rows)

		require.Len(t, res.Cases, 4)
		assert.Zero(t, res.Skipped)
		require.Len(t, res.Warnings, 2)
		assert.False(t, res.Warnings[0].Skipped)
		assert.Equal(t, "", res.Cases[1].Title)
		assert.Equal(t, "C3", res.Cases[2].CaseNumber)
		assert.Equal(t, "", res.Cases[2].Description)
		assert.Equal(t, "", res.Cases[2].StatusReason)
	})
}

func TestNormalize_Empty(t *testing.T) {
	res := New(DefaultSchema, PolicySkip, nil).Normalize(nil)
	assert.NotNil(t, res.Cases)
	assert.Empty(t, res.Cases)
	assert.Zero(t, res.Skipped)
}

func TestNormalize_NonStringRecognizedValue(t *testing.T) {
	rows := []models.Fields{
		models.NewFields("CaseNumber", json.Number("1001"), "CaseTitle", "t", "Description", "d"),
	}
	res := New(DefaultSchema, PolicySkip, nil).Normalize(rows)
	require.Len(t, res.Cases, 1)
	assert.Equal(t, "1001", res.Cases[0].CaseNumber)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"skip", PolicySkip, false},
		{"KEEP", PolicyKeep, false},
		{"", PolicySkip, false},
		{"drop", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.True(t, caseerror.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
