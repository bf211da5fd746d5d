package taxonomy

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/store"
)

func TestTaxonomyCommand_Subcommands(t *testing.T) {
	names := make([]string, 0, len(Cmd.Commands()))
	for _, sub := range Cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"list", "set", "import", "export", "reset"}, names)
}

func TestParseEntries(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    []models.TaxonomyEntry
		expectError bool
	}{
		{
			name:     "name and description",
			args:     []string{"Billing=Invoices and refunds"},
			expected: []models.TaxonomyEntry{{Name: "Billing", Description: "Invoices and refunds"}},
		},
		{
			name:     "bare name",
			args:     []string{" Duplicate "},
			expected: []models.TaxonomyEntry{{Name: "Duplicate"}},
		},
		{
			name:     "description containing equals",
			args:     []string{"Config=a=b"},
			expected: []models.TaxonomyEntry{{Name: "Config", Description: "a=b"}},
		},
		{
			name:     "no entries",
			args:     nil,
			expected: []models.TaxonomyEntry{},
		},
		{
			name:        "empty name",
			args:        []string{"=Nothing"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := ParseEntries(tt.args)
			if tt.expectError {
				assert.True(t, caseerror.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entries)
		})
	}
}

func TestListAndSet(t *testing.T) {
	s := store.NewMemoryTaxonomyStore(logging.NewMockLogger())

	var out bytes.Buffer
	require.NoError(t, List(s, models.KindResolutions, &out))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "Duplicate")

	out.Reset()
	require.NoError(t, Set(s, models.KindCategories, []string{"Billing=Invoices", "Access"}, &out))
	assert.Contains(t, out.String(), "Billing")
	assert.Contains(t, out.String(), "Invoices")

	entries, err := s.List(models.KindCategories)
	require.NoError(t, err)
	assert.Equal(t, []string{"Billing", "Access"}, models.Names(entries))

	out.Reset()
	require.NoError(t, Set(s, models.KindCategories, nil, &out))
	assert.Equal(t, "No categories defined\n", out.String())
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	s := store.NewTaxonomyStore(dir, logging.NewMockLogger())

	in := filepath.Join(dir, "categories.csv")
	require.NoError(t, os.WriteFile(in, []byte("name,description\nBilling,Invoices\nShipping,Parcels\n"), 0600))

	var out bytes.Buffer
	require.NoError(t, Import(s, models.KindCategories, in, &out))
	assert.Contains(t, out.String(), "Shipping")

	out.Reset()
	require.NoError(t, Export(s, models.KindCategories, "", &out))
	assert.Equal(t, "name,description\nBilling,Invoices\nShipping,Parcels\n", out.String())

	target := filepath.Join(dir, "exported.csv")
	out.Reset()
	require.NoError(t, Export(s, models.KindCategories, target, &out))
	assert.Contains(t, out.String(), "Exported categories to "+target)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Billing,Invoices")
}

func TestImport_MissingFile(t *testing.T) {
	s := store.NewMemoryTaxonomyStore(logging.NewMockLogger())
	err := Import(s, models.KindCategories, filepath.Join(t.TempDir(), "none.csv"), &bytes.Buffer{})
	assert.True(t, caseerror.IsValidation(err))
}
