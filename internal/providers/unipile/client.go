// Package unipile is a thin HTTP client for the Unipile LinkedIn API
// implementing the sourcing collaborator contracts.
package unipile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"golang.org/x/time/rate"
)

// Client talks to the Unipile LinkedIn API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// Compile-time assertion: Client implements the collaborator contract
var _ interfaces.LinkedInClient = (*Client)(nil)

// NewClient creates a Unipile client with request rate limiting
func NewClient(config *common.UnipileConfig, logger arbor.ILogger) *Client {
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// apiError is an HTTP-level failure from the Unipile API
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("LinkedIn API error (%d): %s", e.StatusCode, e.Body)
}

// SearchTalent runs a paged people search against the configured account
func (c *Client) SearchTalent(ctx context.Context, params interfaces.TalentSearchParams, account *interfaces.LinkedInAccount) (*interfaces.TalentSearchResult, error) {
	var candidates []interfaces.SourcedCandidate

	for page := 0; page < params.MaxPages; page++ {
		payload := map[string]interface{}{
			"api":       params.Criteria.API,
			"category":  "people",
			"keywords":  params.Criteria.Keywords,
			"page_size": params.PageSize,
			"offset":    page * params.PageSize,
		}
		if params.Criteria.Location != "" {
			payload["location"] = params.Criteria.Location
		}
		if params.Criteria.Industry != "" {
			payload["industry"] = params.Criteria.Industry
		}
		if fragments := filterTexts(params.Criteria.RoleKeywords); len(fragments) > 0 {
			payload["role_keywords"] = fragments
		}
		if fragments := filterTexts(params.Criteria.Skills); len(fragments) > 0 {
			payload["skills"] = fragments
		}
		if fragments := filterTexts(params.Criteria.Companies); len(fragments) > 0 {
			payload["companies"] = fragments
		}

		var response struct {
			Items []struct {
				ID               string `json:"id"`
				PublicIdentifier string `json:"public_identifier"`
				ProfileURL       string `json:"profile_url"`
				Name             string `json:"name"`
				Headline         string `json:"headline"`
				Location         string `json:"location"`
				Company          string `json:"company"`
				Title            string `json:"title"`
			} `json:"items"`
			Paging struct {
				TotalCount int `json:"total_count"`
			} `json:"paging"`
		}

		path := fmt.Sprintf("/api/v1/linkedin/search?account_id=%s", url.QueryEscape(account.UnipileAccountID))
		if err := c.doJSON(ctx, http.MethodPost, path, payload, &response); err != nil {
			return &interfaces.TalentSearchResult{Success: false, Error: err.Error()}, err
		}

		for _, item := range response.Items {
			candidates = append(candidates, interfaces.SourcedCandidate{
				ProviderID:       item.ID,
				PublicIdentifier: item.PublicIdentifier,
				ProfileURL:       item.ProfileURL,
				Name:             item.Name,
				Headline:         item.Headline,
				Location:         item.Location,
				CurrentCompany:   item.Company,
				CurrentRole:      item.Title,
			})
		}

		if len(response.Items) < params.PageSize {
			break
		}
	}

	return &interfaces.TalentSearchResult{Success: true, Candidates: candidates}, nil
}

// GetUserProfile fetches a user's full profile
func (c *Client) GetUserProfile(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ProfileResponse, error) {
	var response struct {
		ID               string `json:"id"`
		PublicIdentifier string `json:"public_identifier"`
		Headline         string `json:"headline"`
		Location         string `json:"location"`
		Company          string `json:"company"`
		Title            string `json:"title"`
		Skills           []struct {
			Name string `json:"name"`
		} `json:"skills"`
		IsOpenToWork bool `json:"is_open_to_work"`
	}

	path := fmt.Sprintf("/api/v1/users/%s?account_id=%s",
		url.PathEscape(providerID), url.QueryEscape(account.UnipileAccountID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}

	profile := &interfaces.ProfileResponse{
		ProviderID:       response.ID,
		PublicIdentifier: response.PublicIdentifier,
		Headline:         response.Headline,
		Location:         response.Location,
		CurrentCompany:   response.Company,
		CurrentRole:      response.Title,
		IsOpenToWork:     response.IsOpenToWork,
	}
	for _, skill := range response.Skills {
		profile.Skills = append(profile.Skills, skill.Name)
	}
	return profile, nil
}

// GetUserPosts fetches a user's recent posts
func (c *Client) GetUserPosts(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return c.activity(ctx, account, providerID, "posts")
}

// GetUserComments fetches a user's recent comments
func (c *Client) GetUserComments(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return c.activity(ctx, account, providerID, "comments")
}

// GetUserReactions fetches a user's recent reactions
func (c *Client) GetUserReactions(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return c.activity(ctx, account, providerID, "reactions")
}

func (c *Client) activity(ctx context.Context, account *interfaces.LinkedInAccount, providerID, kind string) (*interfaces.ActivityResponse, error) {
	var response interfaces.ActivityResponse
	path := fmt.Sprintf("/api/v1/users/%s/%s?account_id=%s",
		url.PathEscape(providerID), kind, url.QueryEscape(account.UnipileAccountID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ClassifyError normalises a provider error to the pipeline taxonomy
func (c *Client) ClassifyError(err error) interfaces.ErrorClassification {
	return Classify(err)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = strings.NewReader(string(data))
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("X-API-KEY", c.apiKey)
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if response.StatusCode >= 400 {
		return &apiError{StatusCode: response.StatusCode, Body: truncate(string(data), 200)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func filterTexts(filters []models.SearchFilter) []string {
	var texts []string
	for _, filter := range filters {
		if filter.ID != "" {
			texts = append(texts, filter.ID)
		} else if filter.Text != "" {
			texts = append(texts, filter.Text)
		}
	}
	return texts
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
