package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
)

type call struct {
	in, out, backend string
}

type fakeCategorizer struct {
	calls  []call
	failOn string
	err    error
}

func (f *fakeCategorizer) CategorizeFile(_ context.Context, in, out, backend string) (pipeline.Result, error) {
	f.calls = append(f.calls, call{in: in, out: out, backend: backend})
	if filepath.Base(in) == f.failOn {
		return pipeline.Result{}, f.err
	}
	return pipeline.Result{Stats: models.RunStats{Total: 2, Succeeded: 2}}, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("CaseTitle,Description\n"), 0600))
	}
}

func TestProcessDirectory(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	writeFiles(t, inDir, "b.xlsx", "a.csv", "readme.md")

	fake := &fakeCategorizer{failOn: "b.xlsx", err: errors.New("broken workbook")}
	logger := logging.NewMockLogger()
	summary, err := NewProcessor(fake, logger).ProcessDirectory(context.Background(), inDir, outDir, "ollama", "csv")
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	assert.Equal(t, call{
		in:      filepath.Join(inDir, "a.csv"),
		out:     filepath.Join(outDir, "a_categorized.csv"),
		backend: "ollama",
	}, fake.calls[0])
	assert.Equal(t, filepath.Join(outDir, "b_categorized.csv"), fake.calls[1].out)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Files[0].Stats.Total)
	assert.EqualError(t, summary.Files[1].Err, "broken workbook")
	assert.DirExists(t, outDir)
	assert.True(t, logger.HasEntry("ERROR", "Failed to categorize file"))
	assert.True(t, logger.HasEntry("INFO", "Batch processing completed"))
}

func TestProcessDirectory_Empty(t *testing.T) {
	fake := &fakeCategorizer{}
	logger := logging.NewMockLogger()
	summary, err := NewProcessor(fake, logger).ProcessDirectory(context.Background(), t.TempDir(), t.TempDir(), "openai", "csv")
	require.NoError(t, err)
	assert.Empty(t, summary.Files)
	assert.Empty(t, fake.calls)
	assert.True(t, logger.HasEntry("WARN", "No supported files found in input directory"))
}

func TestProcessDirectory_MissingInput(t *testing.T) {
	_, err := NewProcessor(&fakeCategorizer{}, nil).ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), "openai", "csv")
	assert.Error(t, err)
}

func TestProcessDirectory_Cancelled(t *testing.T) {
	inDir := t.TempDir()
	writeFiles(t, inDir, "a.csv", "b.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeCategorizer{}
	_, err := NewProcessor(fake, logging.NewMockLogger()).ProcessDirectory(ctx, inDir, t.TempDir(), "openai", "xlsx")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.calls)
}

func TestProcessDirectory_StopsWhenRunIsCancelled(t *testing.T) {
	inDir := t.TempDir()
	writeFiles(t, inDir, "a.csv", "b.csv")

	fake := &fakeCategorizer{failOn: "a.csv", err: context.Canceled}
	summary, err := NewProcessor(fake, logging.NewMockLogger()).ProcessDirectory(context.Background(), inDir, t.TempDir(), "openai", "csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, fake.calls, 1)
	assert.Equal(t, 1, summary.Failed)
}
