package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/case-categorizer/internal/llm"
	"fjacquet/case-categorizer/internal/logging"
	"fjacquet/case-categorizer/internal/models"
)

// fakeClient answers based on the case title embedded in the prompt.
type fakeClient struct {
	respond func(ctx context.Context, title string) (string, error)

	mu       sync.Mutex
	calls    int
	inFlight int32
	maxSeen  int32
}

func (f *fakeClient) Complete(ctx context.Context, p string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	return f.respond(ctx, titleFromPrompt(p))
}

func (f *fakeClient) Backend() llm.Backend { return llm.OpenAI }
func (f *fakeClient) Model() string        { return "fake" }

func titleFromPrompt(p string) string {
	for _, line := range strings.Split(p, "\n") {
		if strings.HasPrefix(line, "Title: ") {
			return strings.TrimPrefix(line, "Title: ")
		}
	}
	return ""
}

func answer(category string) string {
	return fmt.Sprintf("Category: %s\nResolution: Fixed\nCertainty: High\nReasoning: because %s", category, category)
}

func makeCases(n int) []models.CaseRecord {
	cases := make([]models.CaseRecord, n)
	for i := range cases {
		cases[i] = models.CaseRecord{Index: i, Title: fmt.Sprintf("case-%d", i+1), Description: "d"}
	}
	return cases
}

func testTaxonomy() models.Taxonomy {
	return models.Taxonomy{
		Categories:  []models.TaxonomyEntry{{Name: "A", Description: "a"}},
		Resolutions: []models.TaxonomyEntry{{Name: "Fixed", Description: "f"}},
	}
}

func TestCategorize_PreservesInputOrder(t *testing.T) {
	// case-1 answers last, case-3 first.
	delays := map[string]time.Duration{
		"case-1": 120 * time.Millisecond,
		"case-2": 60 * time.Millisecond,
		"case-3": 0,
	}
	var completionOrder []string
	var mu sync.Mutex

	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		time.Sleep(delays[title])
		mu.Lock()
		completionOrder = append(completionOrder, title)
		mu.Unlock()
		return answer(title), nil
	}}

	c := NewCategorizer(client, Options{Concurrency: 3}, logging.NewMockLogger())
	results := c.Categorize(context.Background(), makeCases(3), testTaxonomy())

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("case-%d", i+1), r.Category)
	}
	assert.Equal(t, []string{"case-3", "case-2", "case-1"}, completionOrder)
}

func TestCategorize_FailureIsIsolated(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		if title == "case-3" {
			return "", errors.New("connection reset by peer")
		}
		return answer(title), nil
	}}
	logger := logging.NewMockLogger()

	c := NewCategorizer(client, Options{Concurrency: 2}, logger)
	results := c.Categorize(context.Background(), makeCases(5), testTaxonomy())

	require.Len(t, results, 5)
	for i, r := range results {
		if i == 2 {
			assert.True(t, r.Failed())
			assert.Equal(t, models.ErrorMarker, r.Category)
			assert.Equal(t, models.ErrorMarker, r.Resolution)
			assert.Contains(t, r.Error, "connection reset by peer")
			continue
		}
		assert.False(t, r.Failed())
		assert.Equal(t, fmt.Sprintf("case-%d", i+1), r.Category)
	}

	warns := logger.GetEntriesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "Case categorization failed", warns[0].Message)
	assert.Equal(t, 5, client.calls)
}

func TestCategorize_ParseFailureKeepsRaw(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		return "Category: A\nResolution: B\nCertainty: High", nil
	}}
	c := NewCategorizer(client, Options{}, logging.NewMockLogger())
	results := c.Categorize(context.Background(), makeCases(1), testTaxonomy())

	require.True(t, results[0].Failed())
	assert.Contains(t, results[0].Error, "missing reasoning")
	assert.Equal(t, "Category: A\nResolution: B\nCertainty: High", results[0].Raw)
}

func TestCategorize_BoundsConcurrency(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return answer(title), nil
	}}
	c := NewCategorizer(client, Options{Concurrency: 2}, logging.NewMockLogger())
	results := c.Categorize(context.Background(), makeCases(8), testTaxonomy())

	require.Len(t, results, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&client.maxSeen), int32(2))
	assert.Equal(t, 8, client.calls)
}

func TestCategorize_Timeout(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		if title == "case-1" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return answer(title), nil
	}}
	c := NewCategorizer(client, Options{Concurrency: 2, Timeout: 30 * time.Millisecond}, logging.NewMockLogger())
	results := c.Categorize(context.Background(), makeCases(2), testTaxonomy())

	assert.True(t, results[0].Failed())
	assert.Contains(t, results[0].Error, "timed out")
	assert.False(t, results[1].Failed())
}

func TestCategorize_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 10)

	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		started <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	}}
	c := NewCategorizer(client, Options{Concurrency: 1}, logging.NewMockLogger())

	go func() {
		<-started
		cancel()
	}()
	results := c.Categorize(ctx, makeCases(4), testTaxonomy())

	require.Len(t, results, 4)
	for _, r := range results {
		assert.True(t, r.Failed())
		assert.Contains(t, r.Error, "canceled")
	}
	assert.Equal(t, 1, client.calls, "queued cases are not sent after cancellation")
}

func TestCategorize_Empty(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		return answer(title), nil
	}}
	c := NewCategorizer(client, Options{}, logging.NewMockLogger())
	assert.Empty(t, c.Categorize(context.Background(), nil, testTaxonomy()))
	assert.Zero(t, client.calls)
}

func TestCategorizeOne(t *testing.T) {
	client := &fakeClient{respond: func(ctx context.Context, title string) (string, error) {
		return answer("Access Issue"), nil
	}}
	c := NewCategorizer(client, Options{}, nil)
	r := c.CategorizeOne(context.Background(), models.CaseRecord{Title: "x", Description: "y"}, testTaxonomy())
	assert.Equal(t, "Access Issue", r.Category)
	assert.Equal(t, models.CertaintyHigh, r.Certainty)
	assert.Equal(t, llm.OpenAI, c.Backend())
}
