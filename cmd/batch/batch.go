// Package batch handles batch processing of case files
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"fjacquet/case-categorizer/cmd/root"
	"fjacquet/case-categorizer/internal/batch"
	"fjacquet/case-categorizer/internal/validation"
)

// Options are the inputs of one batch run.
type Options struct {
	InputDir  string
	OutputDir string
	Backend   string
	Format    string
}

var (
	backendFlag string
	formatFlag  string
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch categorize case files from a directory",
	Long: `Categorize every CSV and XLSX case file in the input directory and write one
<name>_categorized file per input into the output directory.

A file that cannot be categorized is reported and the run continues with the
next one.

Example:
  case-categorizer batch -i cases/ -o categorized/ --backend gemini --format xlsx`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&backendFlag, "backend", "b", "", "LLM backend: openai, gemini, ollama or anthropic (default from config)")
	Cmd.Flags().StringVarP(&formatFlag, "format", "f", "csv", "Output format: csv or xlsx")

	// Override the usage text for the input/output flags in batch context
	Cmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags (for batch, -i/-o refer to directories):
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return errors.New("container not initialized")
	}

	opts := Options{
		InputDir:  root.SharedFlags.Input,
		OutputDir: root.SharedFlags.Output,
		Backend:   backendFlag,
		Format:    formatFlag,
	}
	if opts.Backend == "" {
		opts.Backend = c.GetConfig().LLM.Backend
	}

	ctx, cancel := root.SignalContext(cmd.Context())
	defer cancel()

	return Run(ctx, batch.NewProcessor(c.GetService(), root.Log), opts, cmd.OutOrStdout())
}

// Run validates the options, processes the directory and prints one line per
// file. It fails when any file failed.
func Run(ctx context.Context, p *batch.Processor, opts Options, w io.Writer) error {
	if opts.OutputDir == "" {
		return errors.New("input and output directories must be specified")
	}
	if err := validation.IsValidDirectory(opts.InputDir); err != nil {
		return err
	}
	if err := validation.IsValidOutputFormat(opts.Format); err != nil {
		return err
	}

	summary, err := p.ProcessDirectory(ctx, opts.InputDir, opts.OutputDir, opts.Backend, opts.Format)
	for _, f := range summary.Files {
		if f.Err != nil {
			_, _ = fmt.Fprintf(w, "FAILED  %s: %v\n", filepath.Base(f.Input), f.Err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok      %s -> %s (%d cases, %d failed)\n",
			filepath.Base(f.Input), f.Output, f.Stats.Total, f.Stats.Failed)
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Batch completed: %d files processed, %d failed\n", summary.Processed, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, len(summary.Files))
	}
	return nil
}
