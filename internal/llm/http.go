package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxErrorBody = 512

// defaultHTTPClient has no overall timeout; each request is bounded by its
// context instead.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends payload to url and decodes a successful response into out.
// A non-2xx status becomes a RequestError carrying the provider's error
// message when one can be extracted from the body.
func postJSON(ctx context.Context, client *http.Client, b Backend, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return requestError(b, 0, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return requestError(b, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return requestError(b, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return requestError(b, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return requestError(b, resp.StatusCode, errors.New(errorMessage(respBody, resp.Status)))
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return requestError(b, resp.StatusCode, errEmptyResponse)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return requestError(b, resp.StatusCode, fmt.Errorf("parsing response: %w", err))
	}
	return nil
}

// errorMessage extracts a provider error message from a response body.
// Both {"error": {"message": ...}} and {"error": "..."} shapes are known.
func errorMessage(body []byte, status string) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
