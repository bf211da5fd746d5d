package categorize

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/apiclient"
	"fjacquet/case-categorizer/internal/caseerror"
	"fjacquet/case-categorizer/internal/llm"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
	"fjacquet/case-categorizer/internal/server"
	"fjacquet/case-categorizer/internal/store"
)

const answer = "Category: Access Issue\nResolution: Reset Credentials\nCertainty: High\nReasoning: Login failure."

type stubClient struct{ err error }

func (c stubClient) Complete(context.Context, string) (string, error) { return answer, c.err }
func (c stubClient) Backend() llm.Backend                              { return llm.Ollama }
func (c stubClient) Model() string                                     { return "stub" }

func newService(client llm.Client) (*pipeline.Service, store.Taxonomies) {
	logger := logging.NewMockLogger()
	taxonomies := store.NewMemoryTaxonomyStore(logger)
	newClient := func(context.Context, llm.Backend) (llm.Client, error) { return client, nil }
	return pipeline.NewService(newClient, nil, nil, taxonomies, pipeline.Options{}, logger), taxonomies
}

func writeCases(t *testing.T) string {
	t.Helper()
	in := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"CaseNumber,CaseTitle,Description,Region\nC1,Cannot log in,500 error,EU\nC2,,,US\n"), 0600))
	return in
}

func TestCategorizeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "categorize", Cmd.Use)
	assert.Contains(t, Cmd.Short, "Categorize")
	assert.NotNil(t, Cmd.RunE)

	backend := Cmd.Flags().Lookup("backend")
	require.NotNil(t, backend)
	assert.Equal(t, "b", backend.Shorthand)
	assert.Equal(t, "", backend.DefValue)
	assert.NotNil(t, Cmd.Flags().Lookup("server"))
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "out.xlsx", DefaultOutput(Options{Input: "in.csv", Output: "out.xlsx"}))
	assert.Equal(t, filepath.Join("data", "cases_categorized.csv"), DefaultOutput(Options{Input: filepath.Join("data", "cases.xlsx")}))
}

func TestRun(t *testing.T) {
	svc, _ := newService(stubClient{})
	in := writeCases(t)

	var out bytes.Buffer
	err := Run(context.Background(), svc, Options{Input: in, Backend: "ollama"}, &out)
	require.NoError(t, err)

	expected := filepath.Join(filepath.Dir(in), "cases_categorized.csv")
	data, err := os.ReadFile(expected)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Access Issue")

	text := out.String()
	assert.Contains(t, text, "warning: row 2: missing CaseTitle, Description (skipped)")
	assert.Contains(t, text, "Categorized 1 cases with ollama: 1 succeeded, 0 failed, 1 skipped (100.00% success)")
	assert.Contains(t, text, "Results written to "+expected)
}

func TestRun_Errors(t *testing.T) {
	svc, _ := newService(stubClient{})

	err := Run(context.Background(), svc, Options{Input: filepath.Join(t.TempDir(), "missing.csv"), Backend: "ollama"}, &bytes.Buffer{})
	assert.True(t, caseerror.IsValidation(err))

	err = Run(context.Background(), svc, Options{Input: writeCases(t), Backend: "mistral"}, &bytes.Buffer{})
	assert.True(t, caseerror.IsConfiguration(err))
}

func TestRun_AllFailedStillReports(t *testing.T) {
	svc, _ := newService(stubClient{err: errors.New("connection refused")})

	var out bytes.Buffer
	err := Run(context.Background(), svc, Options{Input: writeCases(t), Backend: "ollama"}, &out)
	assert.ErrorIs(t, err, pipeline.ErrAllRequestsFailed)
	assert.Contains(t, out.String(), "0 succeeded, 1 failed")
}

func TestRunRemote(t *testing.T) {
	svc, taxonomies := newService(stubClient{})
	logger := logging.NewMockLogger()
	srv := httptest.NewServer(server.New(svc, taxonomies, nil, server.Options{}, logger))
	defer srv.Close()

	in := writeCases(t)
	outPath := filepath.Join(t.TempDir(), "remote", "out.csv")

	var out bytes.Buffer
	client := apiclient.New(srv.URL, nil, logger)
	err := RunRemote(context.Background(), client, Options{Input: in, Output: outPath, Backend: "ollama"}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Access Issue")
	assert.Contains(t, out.String(), "1 succeeded, 0 failed, 1 skipped")
}

func TestRunRemote_SurfacesServerDetail(t *testing.T) {
	svc, _ := newService(stubClient{})
	logger := logging.NewMockLogger()
	empty := &store.MockTaxonomyStore{Resolutions: []models.TaxonomyEntry{{Name: "R"}}}
	srv := httptest.NewServer(server.New(svc, empty, nil, server.Options{}, logger))
	defer srv.Close()

	err := RunRemote(context.Background(), apiclient.New(srv.URL, nil, logger),
		Options{Input: writeCases(t), Backend: "ollama"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error: missing categories")
}
