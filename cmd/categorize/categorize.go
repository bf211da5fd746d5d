// Package categorize handles the case file categorization command
package categorize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fjacquet/case-categorizer/cmd/root"
	"fjacquet/case-categorizer/internal/apiclient"
	"fjacquet/case-categorizer/internal/fileutils"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
	"fjacquet/case-categorizer/internal/validation"
)

// Options are the inputs of one categorize run.
type Options struct {
	Input   string
	Output  string
	Backend string
	Server  string
}

var (
	backendFlag string
	serverFlag  string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a CSV or XLSX file of customer-service cases",
	Long: `Categorize every case of a CSV or XLSX file with an LLM backend and write the
original columns plus the predicted category, resolution, certainty and
reasoning to the output file. The output format follows the output extension.

With --server the file is sent to a running case-categorizer server instead
of calling the backend directly.

Example:
  case-categorizer categorize -i cases.xlsx -o categorized.csv --backend ollama`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&backendFlag, "backend", "b", "", "LLM backend: openai, gemini, ollama or anthropic (default from config)")
	Cmd.Flags().StringVar(&serverFlag, "server", "", "Base URL of a case-categorizer server to delegate to")
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return errors.New("container not initialized")
	}

	opts := Options{
		Input:   root.SharedFlags.Input,
		Output:  root.SharedFlags.Output,
		Backend: backendFlag,
		Server:  serverFlag,
	}
	if opts.Backend == "" {
		opts.Backend = c.GetConfig().LLM.Backend
	}

	ctx, cancel := root.SignalContext(cmd.Context())
	defer cancel()

	if opts.Server != "" {
		return RunRemote(ctx, apiclient.New(opts.Server, nil, root.Log), opts, cmd.OutOrStdout())
	}
	return Run(ctx, c.GetService(), opts, cmd.OutOrStdout())
}

// DefaultOutput derives the output path from the input when none is given.
func DefaultOutput(opts Options) string {
	if opts.Output != "" {
		return opts.Output
	}
	return filepath.Join(filepath.Dir(opts.Input), fileutils.OutputName(opts.Input, "csv"))
}

// Run categorizes a file locally.
func Run(ctx context.Context, svc *pipeline.Service, opts Options, w io.Writer) error {
	if err := validation.IsValidInputFile(opts.Input); err != nil {
		return err
	}
	out := DefaultOutput(opts)

	result, err := svc.CategorizeFile(ctx, opts.Input, out, opts.Backend)
	if err != nil && !errors.Is(err, pipeline.ErrAllRequestsFailed) {
		return err
	}

	for _, warning := range result.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}
	PrintSummary(w, string(result.Backend), result.Stats, out)
	return err
}

// RunRemote uploads the file to a server, categorizes it there and writes
// the exported result.
func RunRemote(ctx context.Context, client *apiclient.Client, opts Options, w io.Writer) error {
	if err := validation.IsValidInputFile(opts.Input); err != nil {
		return err
	}
	out := DefaultOutput(opts)

	in, err := os.Open(opts.Input) // #nosec G304 -- CLI tool requires user-provided file paths
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = in.Close() }()

	upload, err := client.Upload(ctx, filepath.Base(opts.Input), in)
	if err != nil {
		return err
	}
	for _, warning := range upload.Warnings {
		_, _ = fmt.Fprintf(w, "warning: %s\n", warning)
	}

	results, err := client.Categorize(ctx, apiclient.CategorizeRequest{
		Cases:         upload.Cases,
		SelectedModel: opts.Backend,
	})
	if err != nil {
		return err
	}

	stats := statsFromResults(results, upload.Skipped)
	if err := writeExport(ctx, client, results, out); err != nil {
		return err
	}
	PrintSummary(w, opts.Backend, stats, out)
	return nil
}

func writeExport(ctx context.Context, client *apiclient.Client, results []models.CategorizedCase, out string) error {
	if len(results) == 0 {
		return nil
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := fileutils.EnsureDirectoryExists(dir); err != nil {
			return err
		}
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	if format != "xlsx" {
		format = "csv"
	}

	var buf bytes.Buffer
	if _, err := client.Export(ctx, results, format, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), models.PermissionOutputFile); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	return nil
}

func statsFromResults(results []models.CategorizedCase, skipped int) models.RunStats {
	predictions := make([]models.PredictionResult, len(results))
	for i, r := range results {
		predictions[i] = models.PredictionResult{
			Certainty: models.Certainty(r.PredictedCertainty),
			Error:     r.Error,
		}
	}
	return models.NewRunStats(predictions, skipped)
}

// PrintSummary writes a one-line run summary and the output location.
func PrintSummary(w io.Writer, backend string, stats models.RunStats, out string) {
	_, _ = fmt.Fprintf(w, "Categorized %d cases with %s: %d succeeded, %d failed, %d skipped (%s%% success)\n",
		stats.Total, backend, stats.Succeeded, stats.Failed, stats.Skipped, stats.SuccessRate().StringFixed(2))
	if stats.Total > 0 {
		_, _ = fmt.Fprintf(w, "Results written to %s\n", out)
	}
}
