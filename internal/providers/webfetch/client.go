// Package webfetch fetches pages and extracts readable content. Text
// extraction uses goquery; markdown extraction uses html-to-markdown.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Client fetches and extracts page content
type Client struct {
	httpClient *http.Client
	converter  *md.Converter
	maxChars   int
	logger     arbor.ILogger
}

// Compile-time assertion: Client implements the collaborator contract
var _ interfaces.WebFetchClient = (*Client)(nil)

// NewClient creates a fetch client
func NewClient(config *common.WebFetchConfig, logger arbor.ILogger) *Client {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxChars := config.MaxChars
	if maxChars <= 0 {
		maxChars = 8000
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		converter:  md.NewConverter("", true, nil),
		maxChars:   maxChars,
		logger:     logger,
	}
}

// Execute fetches the URL and extracts content in the requested mode
func (c *Client) Execute(ctx context.Context, req interfaces.WebFetchRequest) (*interfaces.WebFetchResponse, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch request: %w", err)
	}
	request.Header.Set("User-Agent", "venari/"+common.GetVersion())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch error (%d) for %s", response.StatusCode, req.URL)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	var content string
	switch req.ExtractMode {
	case "markdown":
		content, err = c.converter.ConvertString(string(body))
		if err != nil {
			return nil, fmt.Errorf("failed to convert page to markdown: %w", err)
		}
	default: // text
		content, err = extractText(string(body))
		if err != nil {
			return nil, err
		}
	}

	maxChars := req.MaxChars
	if maxChars <= 0 || maxChars > c.maxChars {
		maxChars = c.maxChars
	}
	if len(content) > maxChars {
		content = content[:maxChars]
	}

	return &interfaces.WebFetchResponse{
		Details: interfaces.WebFetchDetails{Content: content},
	}, nil
}

// extractText strips scripts and styles and returns the visible text
func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " "), nil
}
