// Package categorizer sends cases to an LLM backend and collects one
// prediction per case, in input order.
package categorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fjacquet/case-categorizer/internal/llm"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/prediction"
	"fjacquet/case-categorizer/internal/prompt"
)

// Defaults used when Options leaves a value unset.
const (
	DefaultConcurrency = 4
	DefaultTimeout     = 60 * time.Second
)

// Options bounds the work done for one run.
type Options struct {
	// Concurrency is the maximum number of in-flight backend requests.
	Concurrency int
	// Timeout bounds each backend request. A timeout is reported like any
	// other request failure.
	Timeout time.Duration
}

// Categorizer issues exactly one backend request per case. It never
// retries and never lets a per-case failure abort the run.
type Categorizer struct {
	client  llm.Client
	opts    Options
	logger  logging.Logger
	builder func(models.CaseRecord, models.Taxonomy) string
}

// NewCategorizer creates a Categorizer for client.
func NewCategorizer(client llm.Client, opts Options, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Categorizer{
		client:  client,
		opts:    opts,
		logger:  logger,
		builder: prompt.Build,
	}
}

// Backend returns the backend this categorizer talks to.
func (c *Categorizer) Backend() llm.Backend {
	return c.client.Backend()
}

// Categorize predicts every case. The result has the same length and order
// as cases; result i always belongs to cases[i], whatever the completion
// order. Cancelling ctx abandons in-flight requests and marks every
// unfinished case as failed.
func (c *Categorizer) Categorize(ctx context.Context, cases []models.CaseRecord, taxonomy models.Taxonomy) []models.PredictionResult {
	results := make([]models.PredictionResult, len(cases))
	if len(cases) == 0 {
		return results
	}

	start := time.Now()
	c.logger.Info("Starting categorization",
		logging.Field{Key: logging.FieldBackend, Value: string(c.client.Backend())},
		logging.Field{Key: logging.FieldModel, Value: c.client.Model()},
		logging.Field{Key: logging.FieldCount, Value: len(cases)},
		logging.Field{Key: logging.FieldWorkers, Value: c.opts.Concurrency})

	snapshot := taxonomy.Clone()

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i := range cases {
		g.Go(func() error {
			// Each goroutine owns slot i exclusively.
			results[i] = c.categorizeOne(ctx, i, cases[i], snapshot)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("Categorization finished",
		logging.Field{Key: logging.FieldBackend, Value: string(c.client.Backend())},
		logging.Field{Key: logging.FieldCount, Value: len(cases)},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return results
}

// CategorizeOne predicts a single case.
func (c *Categorizer) CategorizeOne(ctx context.Context, record models.CaseRecord, taxonomy models.Taxonomy) models.PredictionResult {
	return c.categorizeOne(ctx, 0, record, taxonomy)
}

func (c *Categorizer) categorizeOne(ctx context.Context, slot int, record models.CaseRecord, taxonomy models.Taxonomy) models.PredictionResult {
	if err := ctx.Err(); err != nil {
		return c.fail(slot, record, fmt.Errorf("categorization cancelled: %w", err), "")
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	text, err := c.client.Complete(reqCtx, c.builder(record, taxonomy))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("request timed out after %s: %w", c.opts.Timeout, err)
		}
		return c.fail(slot, record, err, "")
	}

	result := prediction.Parse(text)
	if result.Failed() {
		return c.fail(slot, record, errors.New(result.Error), text)
	}

	c.logger.Debug("Case categorized",
		logging.Field{Key: logging.FieldCaseIndex, Value: slot},
		logging.Field{Key: logging.FieldCategory, Value: result.Category},
		logging.Field{Key: logging.FieldResolution, Value: result.Resolution},
		logging.Field{Key: logging.FieldCertainty, Value: string(result.Certainty)})
	return result
}

func (c *Categorizer) fail(slot int, record models.CaseRecord, err error, raw string) models.PredictionResult {
	c.logger.WithError(err).Warn("Case categorization failed",
		logging.Field{Key: logging.FieldCaseIndex, Value: slot},
		logging.Field{Key: logging.FieldRow, Value: record.Index + 1},
		logging.Field{Key: logging.FieldBackend, Value: string(c.client.Backend())})
	return models.ErrorPrediction(err.Error(), raw)
}
