package store

import (
	"sync"

	"fjacquet/case-categorizer/internal/models"
)

// MockTaxonomyStore is an in-memory Taxonomies for tests.
type MockTaxonomyStore struct {
	mu          sync.Mutex
	Categories  []models.TaxonomyEntry
	Resolutions []models.TaxonomyEntry

	// Error flags for testing error conditions
	ListError     error
	ReplaceError  error
	SnapshotError error

	ReplaceCalls int
}

var _ Taxonomies = (*MockTaxonomyStore)(nil)

// List returns a copy of the mock list.
func (m *MockTaxonomyStore) List(kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	if kind == models.KindResolutions {
		return cloneEntries(m.Resolutions), nil
	}
	return cloneEntries(m.Categories), nil
}

// Replace swaps the mock list.
func (m *MockTaxonomyStore) Replace(kind models.TaxonomyKind, entries []models.TaxonomyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplaceCalls++
	if m.ReplaceError != nil {
		return m.ReplaceError
	}
	if kind == models.KindResolutions {
		m.Resolutions = cloneEntries(entries)
	} else {
		m.Categories = cloneEntries(entries)
	}
	return nil
}

// Snapshot returns both mock lists.
func (m *MockTaxonomyStore) Snapshot() (models.Taxonomy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SnapshotError != nil {
		return models.Taxonomy{}, m.SnapshotError
	}
	return models.Taxonomy{
		Categories:  cloneEntries(m.Categories),
		Resolutions: cloneEntries(m.Resolutions),
	}, nil
}
