package models

// TaxonomyEntry is one named product category or resolution type.
type TaxonomyEntry struct {
	Name        string `json:"name" yaml:"name" csv:"name"`
	Description string `json:"description" yaml:"description" csv:"description"`
}

// Taxonomy is the snapshot of both lists used for one categorization run.
type Taxonomy struct {
	Categories  []TaxonomyEntry `json:"categories" yaml:"categories"`
	Resolutions []TaxonomyEntry `json:"resolutions" yaml:"resolutions"`
}

// TaxonomyKind selects one of the two taxonomy lists.
type TaxonomyKind string

const (
	KindCategories  TaxonomyKind = "categories"
	KindResolutions TaxonomyKind = "resolutions"
)

// Names returns the entry names in order.
func Names(entries []TaxonomyEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Clone returns a deep copy so callers can hand the snapshot to concurrent
// workers without sharing the backing arrays.
func (t Taxonomy) Clone() Taxonomy {
	return Taxonomy{
		Categories:  append([]TaxonomyEntry(nil), t.Categories...),
		Resolutions: append([]TaxonomyEntry(nil), t.Resolutions...),
	}
}
