package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
)

func TestDetail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{
			name:   "string detail",
			body:   `{"detail": "configuration error: missing categories"}`,
			status: http.StatusBadRequest,
			want:   "configuration error: missing categories",
		},
		{
			name:   "validation entries",
			body:   `{"detail": [{"loc": ["body", "cases"], "msg": "field required"}, {"loc": ["body", 0], "msg": "bad item"}]}`,
			status: http.StatusUnprocessableEntity,
			want:   "body.cases: field required; body.0: bad item",
		},
		{
			name:   "no detail",
			body:   `{"error": "x"}`,
			status: http.StatusBadGateway,
			want:   "Bad Gateway",
		},
		{
			name:   "not JSON",
			body:   `<html>oops</html>`,
			status: http.StatusInternalServerError,
			want:   "Internal Server Error",
		},
		{
			name:   "unknown status",
			body:   ``,
			status: 599,
			want:   "status 599",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detail([]byte(tt.body), tt.status))
		})
	}
}

func TestClient_TaxonomyRoundTrip(t *testing.T) {
	var posted []models.TaxonomyEntry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resolutions", r.URL.Path)
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		}
		_ = json.NewEncoder(w).Encode([]models.TaxonomyEntry{{Name: "Fixed", Description: "Done"}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", nil, logging.NewMockLogger())

	entries, err := c.Taxonomy(context.Background(), models.KindResolutions)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fixed"}, models.Names(entries))

	_, err = c.SetTaxonomy(context.Background(), models.KindResolutions, []models.TaxonomyEntry{{Name: "New"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"New"}, models.Names(posted))
}

func TestClient_CategorizeSurfacesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "configuration error: missing resolutions"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, logging.NewMockLogger())
	_, err := c.Categorize(context.Background(), CategorizeRequest{SelectedModel: "openai"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "configuration error: missing resolutions", apiErr.Detail)
}

func TestClient_Categorize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.JSONEq(t, `[]`, string(body["cases"]))
		_, hasCategories := body["availableCategories"]
		assert.False(t, hasCategories)

		_, _ = w.Write([]byte(`[{"originalCase": {"CaseTitle": "A"}, "predictedCategory": "X", "predictedResolution": "Y", "predictedCertainty": "low", "predictedReasoning": "r"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, logging.NewMockLogger())
	results, err := c.Categorize(context.Background(), CategorizeRequest{SelectedModel: "gemini"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "X", results[0].PredictedCategory)
	assert.Equal(t, "A", results[0].OriginalCase.GetString("CaseTitle"))
}

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "cases.csv", header.Filename)
		assert.Equal(t, "CaseTitle\nA\n", string(data))
		_, _ = w.Write([]byte(`{"cases": [{"CaseTitle": "A"}], "skipped": 2, "warnings": ["row 2: missing Description (skipped)"]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, logging.NewMockLogger())
	upload, err := c.Upload(context.Background(), "cases.csv", bytes.NewBufferString("CaseTitle\nA\n"))
	require.NoError(t, err)
	assert.Len(t, upload.Cases, 1)
	assert.Equal(t, 2, upload.Skipped)
}

func TestClient_Export(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xlsx", r.URL.Query().Get("format"))
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusOK {
			_, _ = w.Write([]byte("PK-data"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil, logging.NewMockLogger())

	var buf bytes.Buffer
	ok, err := c.Export(context.Background(), []models.CategorizedCase{{PredictedCategory: "X"}}, "xlsx", &buf)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PK-data", buf.String())

	status.Store(http.StatusNoContent)
	buf.Reset()
	ok, err = c.Export(context.Background(), nil, "xlsx", &buf)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, buf.Len())
}
