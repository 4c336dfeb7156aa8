package enricher

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// fakeSearch returns canned results per query fragment and counts calls
type fakeSearch struct {
	mu      sync.Mutex
	calls   int
	results map[string][]interfaces.WebSearchResult
}

func (f *fakeSearch) Execute(ctx context.Context, req interfaces.WebSearchRequest) (*interfaces.WebSearchResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	for fragment, results := range f.results {
		if strings.Contains(req.Query, fragment) {
			return &interfaces.WebSearchResponse{Details: interfaces.WebSearchDetails{Results: results}}, nil
		}
	}
	return &interfaces.WebSearchResponse{}, nil
}

// fakeFetch returns canned content per URL
type fakeFetch struct {
	mu      sync.Mutex
	calls   int
	content map[string]string
}

func (f *fakeFetch) Execute(ctx context.Context, req interfaces.WebFetchRequest) (*interfaces.WebFetchResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	return &interfaces.WebFetchResponse{
		Details: interfaces.WebFetchDetails{Content: f.content[req.URL]},
	}, nil
}

func newFakes() (*fakeSearch, *fakeFetch) {
	search := &fakeSearch{
		results: map[string][]interfaces.WebSearchResult{
			" github": {
				{URL: "https://github.com/alice-dev", Title: "alice-dev on GitHub", Score: 0.9},
			},
			"x.com OR twitter.com": {
				{URL: "https://x.com/@alice_dev", Title: "Alice on X", Score: 0.8},
			},
			"blog portfolio": {
				{URL: "https://github.com/alice-dev/repo", Title: "repo"},
				{URL: "https://alice.dev", Title: "Alice's site", Score: 0.7},
			},
			"claude code": {
				{URL: "https://alice.dev/posts/mcp", Title: "Building an MCP server", Description: "claude code agents in production"},
				{URL: "https://github.com/alice-dev", Title: "duplicate github hit"},
			},
		},
	}
	fetch := &fakeFetch{
		content: map[string]string{
			"https://github.com/alice-dev":   "shipped a release, deployed to production, many commits",
			"https://alice.dev/posts/mcp":    "mcp agent autogen experiments",
			"https://x.com/@alice_dev":       "posts about codex",
			"https://alice.dev":              "personal site",
		},
	}
	return search, fetch
}

func TestEnrich_IdentityHints(t *testing.T) {
	search, fetch := newFakes()
	service := NewServiceWithoutCache(search, fetch, arbor.NewLogger())

	result, err := service.EnrichExternalFootprint(context.Background(), &Request{
		Name:              "Alice Example",
		Company:           "OpenClaw",
		Headline:          "Platform Engineer",
		EvidenceQueryMode: models.EvidenceQueryModeDefault,
	})
	require.NoError(t, err)

	require.NotNil(t, result.GitHub)
	assert.Equal(t, "alice-dev", result.GitHub.Handle)
	assert.Equal(t, "https://github.com/alice-dev", result.GitHub.URL)

	require.NotNil(t, result.X)
	assert.Equal(t, "alice_dev", result.X.Handle, "leading @ stripped")

	require.NotNil(t, result.PersonalSite)
	assert.Equal(t, "https://alice.dev", result.PersonalSite.URL, "github hosts skipped for personal site")
}

func TestEnrich_StrictModeEvidenceAndSignals(t *testing.T) {
	search, fetch := newFakes()
	service := NewServiceWithoutCache(search, fetch, arbor.NewLogger())

	result, err := service.EnrichExternalFootprint(context.Background(), &Request{
		Name:              "Alice Example",
		EvidenceQueryMode: models.EvidenceQueryModeStrict,
	})
	require.NoError(t, err)

	// Evidence deduped by URL, first-seen wins: the hint hits plus the one
	// new strict hit
	var urls []string
	for _, link := range result.Evidence {
		urls = append(urls, link.URL)
	}
	assert.Equal(t, []string{
		"https://github.com/alice-dev",
		"https://x.com/@alice_dev",
		"https://alice.dev",
		"https://alice.dev/posts/mcp",
	}, urls)

	var aiSignal, builderSignal *models.Signal
	for i := range result.Signals {
		switch result.Signals[i].Key {
		case models.SignalAINativeEvidence:
			aiSignal = &result.Signals[i]
		case models.SignalBuilderActivity:
			builderSignal = &result.Signals[i]
		}
	}
	require.NotNil(t, aiSignal, "strict hits must yield an ai_native_evidence signal")
	assert.GreaterOrEqual(t, *aiSignal.NumericValue, 0.35, "strict hit floor")
	require.NotNil(t, builderSignal, "fetched shipping language must yield builder_activity")
	assert.Greater(t, *builderSignal.NumericValue, 0.0)
}

func TestEnrich_DefaultModeSkipsStrictSearch(t *testing.T) {
	search, fetch := newFakes()
	service := NewServiceWithoutCache(search, fetch, arbor.NewLogger())

	_, err := service.EnrichExternalFootprint(context.Background(), &Request{
		Name:              "Alice Example",
		EvidenceQueryMode: models.EvidenceQueryModeDefault,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, search.calls, "default mode issues three searches")
}

func TestEnrich_SearchCacheHit(t *testing.T) {
	search, fetch := newFakes()
	service := NewService(search, fetch, arbor.NewLogger())

	request := &Request{Name: "Alice Example", EvidenceQueryMode: models.EvidenceQueryModeDefault}
	_, err := service.EnrichExternalFootprint(context.Background(), request)
	require.NoError(t, err)
	firstCalls := search.calls

	_, err = service.EnrichExternalFootprint(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, search.calls, "second identical call served from cache")
}

func TestKeywordScore(t *testing.T) {
	keywords := []string{"codex", "claude code", "mcp", "agent", "agents", "autogen"}

	assert.Equal(t, 0.0, keywordScore("", keywords))
	assert.Equal(t, 0.0, keywordScore("nothing relevant here", keywords))

	// One match over denominator max(2, 6/2) = 3
	assert.InDelta(t, 1.0/3.0, keywordScore("we use mcp daily", keywords), 1e-9)

	// Everything matches, capped at 1
	text := "codex claude code mcp agent agents autogen"
	assert.Equal(t, 1.0, keywordScore(text, keywords))
}

func TestTTLCacheSweep(t *testing.T) {
	cache := newTTLCache(0)
	cache.Set("key", "value")

	_, ok := cache.Get("key")
	assert.False(t, ok, "zero TTL entries expire immediately")
}
