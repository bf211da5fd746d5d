// Package store persists the category and resolution taxonomies.
package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
)

// TaxonomyStore holds both taxonomy lists. Writes replace a whole list and
// are persisted to one YAML file per list. It is safe for concurrent use.
type TaxonomyStore struct {
	CategoriesFile  string
	ResolutionsFile string

	mu          sync.RWMutex
	loaded      bool
	categories  []models.TaxonomyEntry
	resolutions []models.TaxonomyEntry
	logger      logging.Logger
}

// NewTaxonomyStore creates a store persisting to categories.yaml and
// resolutions.yaml under dir. An empty dir uses DefaultDirectory.
func NewTaxonomyStore(dir string, logger logging.Logger) *TaxonomyStore {
	if dir == "" {
		dir = DefaultDirectory()
	}
	return newStore(filepath.Join(dir, "categories.yaml"), filepath.Join(dir, "resolutions.yaml"), logger)
}

// NewMemoryTaxonomyStore creates a store seeded with the defaults that is
// never written to disk.
func NewMemoryTaxonomyStore(logger logging.Logger) *TaxonomyStore {
	return newStore("", "", logger)
}

func newStore(categoriesFile, resolutionsFile string, logger logging.Logger) *TaxonomyStore {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &TaxonomyStore{
		CategoriesFile:  categoriesFile,
		ResolutionsFile: resolutionsFile,
		logger:          logger,
	}
}

// DefaultDirectory returns $HOME/.case-categorizer, or .case-categorizer in
// the working directory when no home directory is known.
func DefaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".case-categorizer"
	}
	return filepath.Join(home, ".case-categorizer")
}

// ParseKind validates a taxonomy list name.
func ParseKind(s string) (models.TaxonomyKind, error) {
	switch k := models.TaxonomyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case models.KindCategories, models.KindResolutions:
		return k, nil
	case "category":
		return models.KindCategories, nil
	case "resolution":
		return models.KindResolutions, nil
	default:
		return "", &caseerror.ValidationError{Source: "taxonomy", Reason: fmt.Sprintf("unknown list %q (expected categories or resolutions)", s)}
	}
}

// Load reads both lists from disk. A missing file yields the default list.
func (s *TaxonomyStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *TaxonomyStore) loadLocked() error {
	categories, err := s.readList(s.CategoriesFile, models.KindCategories)
	if err != nil {
		return err
	}
	resolutions, err := s.readList(s.ResolutionsFile, models.KindResolutions)
	if err != nil {
		return err
	}
	s.categories = categories
	s.resolutions = resolutions
	s.loaded = true
	return nil
}

func (s *TaxonomyStore) ensureLoaded() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	return s.loadLocked()
}

// List returns a copy of one list.
func (s *TaxonomyStore) List(kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.listLocked(kind)), nil
}

// Snapshot returns an independent copy of both lists for one run.
func (s *TaxonomyStore) Snapshot() (models.Taxonomy, error) {
	if err := s.ensureLoaded(); err != nil {
		return models.Taxonomy{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Taxonomy{
		Categories:  cloneEntries(s.categories),
		Resolutions: cloneEntries(s.resolutions),
	}, nil
}

// Replace swaps a whole list and persists it. Names and descriptions are
// trimmed; nothing else is validated.
func (s *TaxonomyStore) Replace(kind models.TaxonomyKind, entries []models.TaxonomyEntry) error {
	if err := s.ensureLoaded(); err != nil {
		return err
	}

	cleaned := make([]models.TaxonomyEntry, len(entries))
	for i, e := range entries {
		cleaned[i] = models.TaxonomyEntry{
			Name:        strings.TrimSpace(e.Name),
			Description: strings.TrimSpace(e.Description),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeList(s.fileFor(kind), kind, cleaned); err != nil {
		return err
	}
	if kind == models.KindResolutions {
		s.resolutions = cleaned
	} else {
		s.categories = cleaned
	}

	s.logger.Info("Taxonomy list replaced",
		logging.Field{Key: logging.FieldOperation, Value: string(kind)},
		logging.Field{Key: logging.FieldCount, Value: len(cleaned)},
		logging.Field{Key: "names", Value: strings.Join(models.Names(cleaned), ", ")})
	return nil
}

// Reset restores the default entries of one list.
func (s *TaxonomyStore) Reset(kind models.TaxonomyKind) error {
	return s.Replace(kind, defaultsFor(kind))
}

// ImportCSV replaces a list with the rows of a CSV stream that has "name"
// and "description" columns.
func (s *TaxonomyStore) ImportCSV(kind models.TaxonomyKind, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading %s CSV: %w", kind, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s.Replace(kind, []models.TaxonomyEntry{})
	}

	var entries []models.TaxonomyEntry
	if err := gocsv.UnmarshalBytes(data, &entries); err != nil {
		return &caseerror.ValidationError{Source: string(kind) + " CSV", Reason: "could not parse taxonomy entries", Err: err}
	}
	return s.Replace(kind, entries)
}

// ExportCSV writes a list as CSV with "name" and "description" columns.
func (s *TaxonomyStore) ExportCSV(kind models.TaxonomyKind, w io.Writer) error {
	entries, err := s.List(kind)
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&entries, w); err != nil {
		return fmt.Errorf("error writing %s CSV: %w", kind, err)
	}
	return nil
}

func (s *TaxonomyStore) listLocked(kind models.TaxonomyKind) []models.TaxonomyEntry {
	if kind == models.KindResolutions {
		return s.resolutions
	}
	return s.categories
}

func (s *TaxonomyStore) fileFor(kind models.TaxonomyKind) string {
	if kind == models.KindResolutions {
		return s.ResolutionsFile
	}
	return s.CategoriesFile
}

func (s *TaxonomyStore) readList(path string, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	if path == "" {
		return defaultsFor(kind), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("Taxonomy file not found, using defaults",
				logging.Field{Key: logging.FieldFile, Value: path})
			return defaultsFor(kind), nil
		}
		return nil, fmt.Errorf("error reading %s file: %w", kind, err)
	}

	// The list is stored under its kind as the top-level key.
	var file map[string][]models.TaxonomyEntry
	if err := yaml.Unmarshal(data, &file); err == nil {
		if entries, ok := file[string(kind)]; ok {
			if entries == nil {
				entries = []models.TaxonomyEntry{}
			}
			s.logger.Debug("Loaded taxonomy",
				logging.Field{Key: logging.FieldFile, Value: path},
				logging.Field{Key: logging.FieldCount, Value: len(entries)})
			return entries, nil
		}
	}

	// Fallback: a bare list without the top-level key.
	var entries []models.TaxonomyEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing %s file %s: %w", kind, path, err)
	}
	if entries == nil {
		entries = []models.TaxonomyEntry{}
	}
	return entries, nil
}

func (s *TaxonomyStore) writeList(path string, kind models.TaxonomyKind, entries []models.TaxonomyEntry) error {
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(map[string][]models.TaxonomyEntry{string(kind): entries})
	if err != nil {
		return fmt.Errorf("error marshaling %s: %w", kind, err)
	}

	// Write to a temp file first so a crash never leaves a truncated list.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing %s: %w", kind, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error writing %s: %w", kind, err)
	}

	s.logger.Debug("Saved taxonomy",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(entries)})
	return nil
}

func cloneEntries(entries []models.TaxonomyEntry) []models.TaxonomyEntry {
	out := make([]models.TaxonomyEntry, len(entries))
	copy(out, entries)
	return out
}

// Taxonomies is the read/replace surface of a taxonomy store.
type Taxonomies interface {
	List(kind models.TaxonomyKind) ([]models.TaxonomyEntry, error)
	Replace(kind models.TaxonomyKind, entries []models.TaxonomyEntry) error
	Snapshot() (models.Taxonomy, error)
}

var _ Taxonomies = (*TaxonomyStore)(nil)
