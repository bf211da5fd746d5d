// Package pipeline ties the categorization components together: normalize
// raw rows, request one prediction per case, aggregate and export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"fjacquet/case-categorizer/internal/aggregator"
	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/categorizer"
	"fjacquet/case-categorizer/internal/exporter"
	"fjacquet/case-categorizer/internal/factory"
	"fjacquet/case-categorizer/internal/llm"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/normalizer"
	"fjacquet/case-categorizer/internal/store"
	"fjacquet/case-categorizer/internal/tabular"
)

// ErrAllRequestsFailed is returned, together with the result rows, when a
// run had cases and every one of them failed.
var ErrAllRequestsFailed = errors.New("all categorization requests failed")

// Request is one categorization call.
type Request struct {
	Cases         []models.Fields
	Categories    []models.TaxonomyEntry
	Resolutions   []models.TaxonomyEntry
	SelectedModel string
}

// Result is the outcome of one run. Rows and Cases are in input order.
type Result struct {
	RunID    string
	Backend  llm.Backend
	Rows     []models.AggregatedRow
	Cases    []models.CategorizedCase
	Warnings []normalizer.RowWarning
	Stats    models.RunStats
}

// UploadResult is a parsed case file ready to be sent back for
// categorization.
type UploadResult struct {
	Cases    []models.Fields `json:"cases"`
	Skipped  int             `json:"skipped"`
	Warnings []string        `json:"warnings"`
}

// Options configures a Service.
type Options struct {
	Categorizer categorizer.Options
	Read        tabular.Options
}

// Service runs categorizations. It holds no per-run state and is safe for
// concurrent use.
type Service struct {
	newClient  factory.ClientFactory
	normalizer *normalizer.Normalizer
	exporter   *exporter.Exporter
	taxonomies store.Taxonomies
	opts       Options
	logger     logging.Logger
}

// NewService creates a Service. taxonomies is only used by CategorizeFile.
func NewService(newClient factory.ClientFactory, norm *normalizer.Normalizer, exp *exporter.Exporter,
	taxonomies store.Taxonomies, opts Options, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if norm == nil {
		norm = normalizer.New(normalizer.DefaultSchema, normalizer.PolicySkip, logger)
	}
	if exp == nil {
		exp = exporter.NewExporter(',', logger)
	}
	return &Service{
		newClient:  newClient,
		normalizer: norm,
		exporter:   exp,
		taxonomies: taxonomies,
		opts:       opts,
		logger:     logger,
	}
}

// Validate checks a request before any backend is contacted and returns the
// selected backend.
func Validate(req Request) (llm.Backend, error) {
	var missing []string
	if len(req.Categories) == 0 {
		missing = append(missing, "categories")
	}
	if len(req.Resolutions) == 0 {
		missing = append(missing, "resolutions")
	}
	if strings.TrimSpace(req.SelectedModel) == "" {
		missing = append(missing, "selected backend")
	}
	if len(missing) > 0 {
		return "", &caseerror.ConfigurationError{Missing: missing}
	}
	return llm.ParseBackend(req.SelectedModel)
}

// Categorize normalizes the request cases, sends one prediction request per
// case and aggregates the answers. Per-case failures are part of the result.
// When every case failed the result is returned with ErrAllRequestsFailed.
func (s *Service) Categorize(ctx context.Context, req Request) (Result, error) {
	backend, err := Validate(req)
	if err != nil {
		return Result{}, err
	}

	result := Result{RunID: uuid.NewString(), Backend: backend}
	logger := s.logger.WithFields(
		logging.Field{Key: logging.FieldRunID, Value: result.RunID},
		logging.Field{Key: logging.FieldBackend, Value: string(backend)})

	normalized := s.normalizer.Normalize(req.Cases)
	result.Warnings = normalized.Warnings
	if len(normalized.Cases) == 0 {
		logger.Info("No cases to categorize",
			logging.Field{Key: logging.FieldSkipped, Value: normalized.Skipped})
		result.Rows = []models.AggregatedRow{}
		result.Cases = []models.CategorizedCase{}
		result.Stats = models.NewRunStats(nil, normalized.Skipped)
		return result, nil
	}

	if s.newClient == nil {
		return Result{}, &caseerror.ConfigurationError{Msg: "no backend client factory configured"}
	}
	client, err := s.newClient(ctx, backend)
	if err != nil {
		return Result{}, err
	}
	if closer, ok := client.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				logger.WithError(cerr).Warn("Failed to close backend client")
			}
		}()
	}

	taxonomy := models.Taxonomy{Categories: req.Categories, Resolutions: req.Resolutions}.Clone()

	start := time.Now()
	predictions := categorizer.NewCategorizer(client, s.opts.Categorizer, logger).
		Categorize(ctx, normalized.Cases, taxonomy)

	result.Rows = aggregator.Aggregate(normalized.Cases, predictions)
	result.Cases = aggregator.ToCategorized(normalized.Cases, predictions)
	result.Stats = models.NewRunStats(predictions, normalized.Skipped)
	result.Stats.LogSummary(logger, string(backend))
	logger.Debug("Run finished",
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("categorization interrupted: %w", err)
	}
	if result.Stats.AllFailed() {
		return result, fmt.Errorf("%w: %s", ErrAllRequestsFailed, predictions[0].Error)
	}
	return result, nil
}

// ResponseCases returns one entry per input row in input order: the
// categorized cases, with an error entry at the position of every row the
// normalizer skipped.
func ResponseCases(rows []models.Fields, result Result) []models.CategorizedCase {
	skipped := make(map[int]normalizer.RowWarning)
	for _, w := range result.Warnings {
		if w.Skipped {
			skipped[w.Row-1] = w
		}
	}
	if len(skipped) == 0 {
		return result.Cases
	}

	out := make([]models.CategorizedCase, 0, len(rows))
	next := 0
	for i, row := range rows {
		if w, ok := skipped[i]; ok {
			out = append(out, models.SkippedCase(row, w.String()))
			continue
		}
		if next < len(result.Cases) {
			out = append(out, result.Cases[next])
			next++
		}
	}
	return out
}

// ReadCases parses an uploaded case file and normalizes it without
// categorizing. The returned cases carry the known fields followed by the
// extra columns.
func (s *Service) ReadCases(r io.Reader, filename string) (UploadResult, error) {
	format, err := tabular.DetectFormat(filename)
	if err != nil {
		return UploadResult{}, err
	}
	rows, err := tabular.Read(r, format, filename, s.opts.Read)
	if err != nil {
		return UploadResult{}, err
	}
	return s.upload(rows), nil
}

func (s *Service) upload(rows []models.Fields) UploadResult {
	normalized := s.normalizer.Normalize(rows)
	out := UploadResult{
		Cases:    make([]models.Fields, len(normalized.Cases)),
		Skipped:  normalized.Skipped,
		Warnings: make([]string, len(normalized.Warnings)),
	}
	for i, c := range normalized.Cases {
		out.Cases[i] = c.OriginalCase()
	}
	for i, w := range normalized.Warnings {
		out.Warnings[i] = w.String()
	}
	return out
}

// CategorizeFile reads a CSV or XLSX case file, categorizes it against the
// stored taxonomy and exports the rows to out. An empty run writes nothing.
func (s *Service) CategorizeFile(ctx context.Context, in, out, backend string) (Result, error) {
	if s.taxonomies == nil {
		return Result{}, &caseerror.ConfigurationError{Missing: []string{"categories", "resolutions"}}
	}
	taxonomy, err := s.taxonomies.Snapshot()
	if err != nil {
		return Result{}, fmt.Errorf("error loading taxonomy: %w", err)
	}

	rows, err := tabular.ReadFile(in, s.opts.Read)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("Read case file",
		logging.Field{Key: logging.FieldInputFile, Value: in},
		logging.Field{Key: logging.FieldCount, Value: len(rows)})

	result, runErr := s.Categorize(ctx, Request{
		Cases:         rows,
		Categories:    taxonomy.Categories,
		Resolutions:   taxonomy.Resolutions,
		SelectedModel: backend,
	})
	if runErr != nil && !errors.Is(runErr, ErrAllRequestsFailed) {
		return result, runErr
	}

	// Failed rows are still exported so the error column can be inspected.
	if err := s.exporter.ExportFile(out, result.Rows); err != nil && !errors.Is(err, exporter.ErrNoResults) {
		return result, err
	}
	return result, runErr
}
