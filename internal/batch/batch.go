// Package batch categorizes every case file of a directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fjacquet/case-categorizer/internal/fileutils"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
)

// FileCategorizer categorizes one file into another.
type FileCategorizer interface {
	CategorizeFile(ctx context.Context, in, out, backend string) (pipeline.Result, error)
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Input  string
	Output string
	Stats  models.RunStats
	Err    error
}

// Summary is the outcome of a directory run, in file name order.
type Summary struct {
	Files     []FileResult
	Processed int
	Failed    int
}

// Processor runs the categorization over a directory, one file at a time.
// Cases inside a file are still categorized concurrently.
type Processor struct {
	categorizer FileCategorizer
	logger      logging.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(categorizer FileCategorizer, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Processor{categorizer: categorizer, logger: logger}
}

// ProcessDirectory categorizes each case file in inputDir and writes
// <name>_categorized.<format> into outputDir. A failing file is recorded and
// the run continues; cancelling ctx stops before the next file.
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir, backend, format string) (Summary, error) {
	files, err := fileutils.ListCaseFiles(inputDir)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read input directory: %w", err)
	}
	if len(files) == 0 {
		p.logger.Warn("No supported files found in input directory",
			logging.Field{Key: logging.FieldInputFile, Value: inputDir})
		return Summary{}, nil
	}
	if err := fileutils.EnsureDirectoryExists(outputDir); err != nil {
		return Summary{}, err
	}

	p.logger.Info("Found files for processing",
		logging.Field{Key: logging.FieldCount, Value: len(files)})

	start := time.Now()
	var summary Summary
	for _, in := range files {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("batch interrupted: %w", err)
		}

		out := filepath.Join(outputDir, fileutils.OutputName(in, format))
		result, err := p.categorizer.CategorizeFile(ctx, in, out, backend)
		fr := FileResult{Input: in, Output: out, Stats: result.Stats, Err: err}
		summary.Files = append(summary.Files, fr)

		if err != nil {
			summary.Failed++
			p.logger.WithError(err).Error("Failed to categorize file",
				logging.Field{Key: logging.FieldInputFile, Value: filepath.Base(in)})
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, fmt.Errorf("batch interrupted: %w", err)
			}
			continue
		}

		summary.Processed++
		p.logger.Info("Categorized file",
			logging.Field{Key: logging.FieldInputFile, Value: filepath.Base(in)},
			logging.Field{Key: logging.FieldOutputFile, Value: out},
			logging.Field{Key: logging.FieldCount, Value: result.Stats.Total})
	}

	p.logger.Info("Batch processing completed",
		logging.Field{Key: "processed", Value: summary.Processed},
		logging.Field{Key: "failed", Value: summary.Failed},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})
	return summary, nil
}
