// Package enricher discovers a candidate's external web footprint: GitHub and
// X profiles, personal sites, and AI-native shipping evidence.
package enricher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Keyword sets for signal extraction
var (
	aiNativeKeywords = []string{"codex", "claude code", "mcp", "agent", "agents", "autogen"}
	builderKeywords  = []string{"shipped", "release", "launched", "production", "deployed", "commit", "pr"}
)

// Floor applied to ai_native_evidence when the strict search returns any hit
const strictHitFloor = 0.35

// Request is one enrichment call for a sourced candidate
type Request struct {
	Name              string
	Company           string
	Headline          string
	EvidenceQueryMode models.EvidenceQueryMode
}

// Result carries the enrichment output back to the orchestrator
type Result struct {
	Signals      []models.Signal
	Evidence     []models.EvidenceLink
	GitHub       *models.PlatformProfileHint
	X            *models.PlatformProfileHint
	PersonalSite *models.PersonalSiteHint
}

// Service is the external-evidence enricher. The search and fetch caches are
// process-wide and goroutine safe.
type Service struct {
	search      interfaces.WebSearchClient
	fetch       interfaces.WebFetchClient
	logger      arbor.ILogger
	searchCache *ttlCache
	fetchCache  *ttlCache
	cacheOn     bool
}

// NewService creates an enricher with caching enabled
func NewService(search interfaces.WebSearchClient, fetch interfaces.WebFetchClient, logger arbor.ILogger) *Service {
	return &Service{
		search:      search,
		fetch:       fetch,
		logger:      logger,
		searchCache: newTTLCache(searchCacheTTL),
		fetchCache:  newTTLCache(fetchCacheTTL),
		cacheOn:     true,
	}
}

// NewServiceWithoutCache creates an enricher that bypasses the TTL caches
func NewServiceWithoutCache(search interfaces.WebSearchClient, fetch interfaces.WebFetchClient, logger arbor.ILogger) *Service {
	s := NewService(search, fetch, logger)
	s.cacheOn = false
	return s
}

// EnrichExternalFootprint issues the person searches, extracts identity
// hints, collects URL-deduped evidence, fetches page text, and derives the
// keyword signals. Search failures propagate to the caller for retry policy.
func (s *Service) EnrichExternalFootprint(ctx context.Context, req *Request) (*Result, error) {
	baseQuery := buildBaseQuery(req.Name, req.Company, req.Headline)
	strict := req.EvidenceQueryMode == models.EvidenceQueryModeStrict

	searches := []interfaces.WebSearchRequest{
		{
			Query:          baseQuery + " github",
			Count:          5,
			SearchType:     "deep",
			Category:       "person",
			IncludeDomains: []string{"github.com"},
		},
		{
			Query:          baseQuery + " x.com OR twitter.com",
			Count:          5,
			SearchType:     "deep",
			Category:       "person",
			IncludeDomains: []string{"x.com", "twitter.com"},
		},
		{
			Query:      baseQuery + " blog portfolio personal site",
			Count:      5,
			SearchType: "deep",
			Category:   "person",
		},
	}
	if strict {
		searches = append(searches, interfaces.WebSearchRequest{
			Query:      baseQuery + ` ("claude code" OR codex OR mcp OR agent tooling OR "model context protocol")`,
			Count:      8,
			SearchType: "deep",
			Category:   "person",
		})
	}

	responses := make([]*interfaces.WebSearchResponse, len(searches))
	errs := make([]error, len(searches))
	var wg sync.WaitGroup
	for i := range searches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = s.cachedSearch(ctx, searches[i])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	githubResults := responses[0].Details.Results
	socialResults := responses[1].Details.Results
	webResults := responses[2].Details.Results
	var strictResults []interfaces.WebSearchResult
	if strict {
		strictResults = responses[3].Details.Results
	}

	result := &Result{}

	var hintEvidence []interfaces.WebSearchResult
	for _, hit := range githubResults {
		if hostContains(hit.URL, "github.com") {
			if handle := firstPathSegment(hit.URL); handle != "" {
				result.GitHub = &models.PlatformProfileHint{Handle: handle, URL: hit.URL}
			}
			hintEvidence = append(hintEvidence, hit)
			break
		}
	}
	for _, hit := range socialResults {
		if hostContains(hit.URL, "x.com") || hostContains(hit.URL, "twitter.com") {
			if handle := firstPathSegment(hit.URL); handle != "" {
				result.X = &models.PlatformProfileHint{Handle: handle, URL: hit.URL}
			}
			hintEvidence = append(hintEvidence, hit)
			break
		}
	}
	for _, hit := range webResults {
		if !hostContains(hit.URL, "linkedin.com") && !hostContains(hit.URL, "github.com") {
			result.PersonalSite = &models.PersonalSiteHint{URL: hit.URL}
			hintEvidence = append(hintEvidence, hit)
			break
		}
	}

	// URL-dedup, first-seen wins
	seen := make(map[string]bool)
	for _, hit := range append(hintEvidence, strictResults...) {
		if hit.URL == "" || seen[hit.URL] {
			continue
		}
		seen[hit.URL] = true
		result.Evidence = append(result.Evidence, models.EvidenceLink{
			URL:       hit.URL,
			Title:     hit.Title,
			Source:    "web_search",
			Relevance: hit.Score,
		})
	}

	fetchLimit := 3
	if strict {
		fetchLimit = 5
	}
	var fetchedContent strings.Builder
	for i, link := range result.Evidence {
		if i >= fetchLimit {
			break
		}
		content, err := s.cachedFetch(ctx, link.URL)
		if err != nil {
			s.logger.Debug().Err(err).Str("url", link.URL).Msg("Evidence fetch failed")
			continue
		}
		fetchedContent.WriteString(content)
		fetchedContent.WriteString("\n")
	}

	var strictText strings.Builder
	for _, hit := range strictResults {
		strictText.WriteString(hit.Title)
		strictText.WriteString(" ")
		strictText.WriteString(hit.Description)
		strictText.WriteString("\n")
	}

	aiScore := keywordScore(strictText.String(), aiNativeKeywords)
	if len(strictResults) > 0 && aiScore < strictHitFloor {
		aiScore = strictHitFloor
	}
	if fetched := keywordScore(fetchedContent.String(), aiNativeKeywords); fetched > aiScore {
		aiScore = fetched
	}
	if aiScore > 0 {
		result.Signals = append(result.Signals,
			models.NumericSignal(models.SignalAINativeEvidence, aiScore, "external_web", "keyword evidence from external search and fetched pages"))
	}

	if builderScore := keywordScore(fetchedContent.String(), builderKeywords); builderScore > 0 {
		result.Signals = append(result.Signals,
			models.NumericSignal(models.SignalBuilderActivity, builderScore, "external_web", "shipping language in fetched pages"))
	}

	return result, nil
}

// cachedSearch consults the 15-minute search cache before calling the provider
func (s *Service) cachedSearch(ctx context.Context, req interfaces.WebSearchRequest) (*interfaces.WebSearchResponse, error) {
	key := searchCacheKey(req)
	if s.cacheOn {
		if cached, ok := s.searchCache.Get(key); ok {
			return cached.(*interfaces.WebSearchResponse), nil
		}
	}

	response, err := s.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.cacheOn {
		s.searchCache.Set(key, response)
	}
	return response, nil
}

// cachedFetch consults the 60-minute fetch cache before calling the provider
func (s *Service) cachedFetch(ctx context.Context, pageURL string) (string, error) {
	if s.cacheOn {
		if cached, ok := s.fetchCache.Get(pageURL); ok {
			return cached.(string), nil
		}
	}

	response, err := s.fetch.Execute(ctx, interfaces.WebFetchRequest{
		URL:         pageURL,
		ExtractMode: "text",
		MaxChars:    8000,
	})
	if err != nil {
		return "", err
	}
	content := response.Details.Content
	if s.cacheOn {
		s.fetchCache.Set(pageURL, content)
	}
	return content, nil
}

func searchCacheKey(req interfaces.WebSearchRequest) string {
	return fmt.Sprintf("%s|%d|%s|%s", req.Query, req.Count, strings.Join(req.IncludeDomains, ","), req.Category)
}

// buildBaseQuery joins the non-blank identity fragments
func buildBaseQuery(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}

// keywordScore counts distinct keyword presence in the text and normalises by
// max(2, len(keywords)/2), capped at 1
func keywordScore(text string, keywords []string) float64 {
	if text == "" {
		return 0
	}
	lowered := strings.ToLower(text)
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			matches++
		}
	}
	denominator := len(keywords) / 2
	if denominator < 2 {
		denominator = 2
	}
	score := float64(matches) / float64(denominator)
	if score > 1 {
		return 1
	}
	return score
}

func hostContains(rawURL, fragment string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(parsed.Host), fragment)
}

// firstPathSegment returns the first non-empty path segment, stripped of a
// leading @
func firstPathSegment(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if segment != "" {
			return strings.TrimPrefix(segment, "@")
		}
	}
	return ""
}
