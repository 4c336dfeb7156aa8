// Package websearch is a thin HTTP client for the web-search provider.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Client executes provider search requests
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
}

// Compile-time assertion: Client implements the collaborator contract
var _ interfaces.WebSearchClient = (*Client)(nil)

// NewClient creates a search client
func NewClient(config *common.WebSearchConfig, logger arbor.ILogger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Execute runs one search call
func (c *Client) Execute(ctx context.Context, req interfaces.WebSearchRequest) (*interfaces.WebSearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if response.StatusCode >= 400 {
		return nil, fmt.Errorf("search provider error (%d): %s", response.StatusCode, string(data))
	}

	var result interfaces.WebSearchResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &result, nil
}
