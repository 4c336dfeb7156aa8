package interfaces

import "context"

// WebSearchRequest describes one provider search call
type WebSearchRequest struct {
	Query          string   `json:"query"`
	Count          int      `json:"count"`
	SearchType     string   `json:"search_type,omitempty"` // "deep" for person searches
	Category       string   `json:"category,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// WebSearchResult is one search hit
type WebSearchResult struct {
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	SiteName    string  `json:"site_name,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// WebSearchDetails wraps the result list
type WebSearchDetails struct {
	Results []WebSearchResult `json:"results"`
}

// WebSearchResponse is the provider's search envelope
type WebSearchResponse struct {
	Details WebSearchDetails `json:"details"`
}

// WebSearchClient is the web-search collaborator contract
type WebSearchClient interface {
	Execute(ctx context.Context, req WebSearchRequest) (*WebSearchResponse, error)
}

// WebFetchRequest describes one page fetch
type WebFetchRequest struct {
	URL         string `json:"url"`
	ExtractMode string `json:"extract_mode,omitempty"` // "text" or "markdown"
	MaxChars    int    `json:"max_chars,omitempty"`
}

// WebFetchDetails wraps the extracted content
type WebFetchDetails struct {
	Content string `json:"content"`
}

// WebFetchResponse is the provider's fetch envelope
type WebFetchResponse struct {
	Details WebFetchDetails `json:"details"`
}

// WebFetchClient is the web-fetch collaborator contract
type WebFetchClient interface {
	Execute(ctx context.Context, req WebFetchRequest) (*WebFetchResponse, error)
}
