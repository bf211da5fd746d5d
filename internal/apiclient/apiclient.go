// Package apiclient talks to a running case-categorizer server.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
	"fjacquet/case-categorizer/internal/pipeline"
)

const defaultTimeout = 10 * time.Minute

// APIError is a non-success answer from the server. Detail carries the
// server's message verbatim, or the HTTP status text when there is none.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// CategorizeRequest is the body of a categorization call. Nil taxonomy
// lists let the server use its stored ones.
type CategorizeRequest struct {
	Cases                []models.Fields         `json:"cases"`
	AvailableCategories  *[]models.TaxonomyEntry `json:"availableCategories,omitempty"`
	AvailableResolutions *[]models.TaxonomyEntry `json:"availableResolutions,omitempty"`
	SelectedModel        string                  `json:"selectedModel"`
}

// Client calls the server endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// New creates a Client for baseURL. A nil httpClient gets a default with a
// generous timeout, since one call may categorize a whole file.
func New(baseURL string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Taxonomy fetches one list.
func (c *Client) Taxonomy(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	var entries []models.TaxonomyEntry
	err := c.doJSON(ctx, http.MethodGet, "/"+string(kind), nil, &entries)
	return entries, err
}

// SetTaxonomy replaces one list and returns what the server stored.
func (c *Client) SetTaxonomy(ctx context.Context, kind models.TaxonomyKind, entries []models.TaxonomyEntry) ([]models.TaxonomyEntry, error) {
	var saved []models.TaxonomyEntry
	err := c.doJSON(ctx, http.MethodPost, "/"+string(kind), entries, &saved)
	return saved, err
}

// Upload sends a case file and returns the parsed cases.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (pipeline.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return pipeline.UploadResult{}, fmt.Errorf("error building upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return pipeline.UploadResult{}, fmt.Errorf("error reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return pipeline.UploadResult{}, fmt.Errorf("error building upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", &body)
	if err != nil {
		return pipeline.UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out pipeline.UploadResult
	if err := c.do(req, &out); err != nil {
		return pipeline.UploadResult{}, err
	}
	return out, nil
}

// Categorize requests predictions for cases.
func (c *Client) Categorize(ctx context.Context, in CategorizeRequest) ([]models.CategorizedCase, error) {
	if in.Cases == nil {
		in.Cases = []models.Fields{}
	}
	var out []models.CategorizedCase
	if err := c.doJSON(ctx, http.MethodPost, "/categorize-cases", in, &out); err != nil {
		return nil, err
	}
	c.logger.Debug("Remote categorization finished",
		logging.Field{Key: logging.FieldCount, Value: len(out)})
	return out, nil
}

// Export posts results to the export endpoint and copies the file to w. It
// returns false when the server had nothing to export.
func (c *Client) Export(ctx context.Context, results []models.CategorizedCase, format string, w io.Writer) (bool, error) {
	payload, err := json.Marshal(results)
	if err != nil {
		return false, fmt.Errorf("error encoding results: %w", err)
	}

	path := "/export"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("export request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return false, fmt.Errorf("error reading export: %w", err)
	}
	return true, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return &APIError{StatusCode: resp.StatusCode, Detail: Detail(body, resp.StatusCode)}
}

// Detail extracts the server's "detail" message from an error body. A list
// of validation entries is rendered as "loc: msg" pairs joined with "; ".
// Without a usable detail the HTTP status text is returned.
func Detail(body []byte, status int) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(envelope.Detail, &msg); err == nil && msg != "" {
			return msg
		}

		var entries []struct {
			Loc []any  `json:"loc"`
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &entries); err == nil && len(entries) > 0 {
			parts := make([]string, 0, len(entries))
			for _, e := range entries {
				loc := make([]string, len(e.Loc))
				for i, l := range e.Loc {
					loc[i] = fmt.Sprint(l)
				}
				parts = append(parts, strings.Join(loc, ".")+": "+e.Msg)
			}
			return strings.Join(parts, "; ")
		}
	}

	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}
