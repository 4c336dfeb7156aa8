package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// LinkedInAccount is the resolved sourcing account a run executes against
type LinkedInAccount struct {
	AccountID          string   `json:"account_id"`
	UnipileAccountID   string   `json:"unipile_account_id,omitempty"`
	Enabled            bool     `json:"enabled"`
	APIKeySource       string   `json:"api_key_source"` // env, config, none
	MissingCredentials []string `json:"missing_credentials,omitempty"`
}

// AccountResolver resolves the LinkedIn account and its credential health
type AccountResolver interface {
	Resolve(ctx context.Context) (*LinkedInAccount, error)
}

// TalentSearchParams drives a LinkedIn talent search
type TalentSearchParams struct {
	Criteria models.SearchCriteria `json:"criteria"`
	PageSize int                   `json:"page_size"`
	MaxPages int                   `json:"max_pages"`
}

// SourcedCandidate is one raw search hit from the LinkedIn provider
type SourcedCandidate struct {
	ProviderID       string `json:"provider_id,omitempty"`
	PublicIdentifier string `json:"public_identifier,omitempty"`
	ProfileURL       string `json:"profile_url,omitempty"`
	Name             string `json:"name,omitempty"`
	Headline         string `json:"headline,omitempty"`
	Location         string `json:"location,omitempty"`
	CurrentCompany   string `json:"current_company,omitempty"`
	CurrentRole      string `json:"current_role,omitempty"`
}

// TalentSearchResult is the provider's search response
type TalentSearchResult struct {
	Success    bool               `json:"success"`
	Candidates []SourcedCandidate `json:"candidates,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ProfileResponse is a full profile fetch
type ProfileResponse struct {
	ProviderID       string   `json:"provider_id,omitempty"`
	PublicIdentifier string   `json:"public_identifier,omitempty"`
	Headline         string   `json:"headline,omitempty"`
	Location         string   `json:"location,omitempty"`
	CurrentCompany   string   `json:"current_company,omitempty"`
	CurrentRole      string   `json:"current_role,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	IsOpenToWork     bool     `json:"is_open_to_work,omitempty"`
}

// ActivityItem is one post, comment, or reaction. Timestamp encoding varies
// by provider endpoint (epoch seconds, epoch millis, or ISO string).
type ActivityItem struct {
	Timestamp interface{} `json:"timestamp,omitempty"`
	Text      string      `json:"text,omitempty"`
	URL       string      `json:"url,omitempty"`
}

// ActivityResponse wraps a list of activity items
type ActivityResponse struct {
	Items []ActivityItem `json:"items"`
}

// ErrorClassification is the normalised form of a LinkedIn provider error
type ErrorClassification struct {
	Type        models.ErrorKind `json:"type"`
	IsTransient bool             `json:"is_transient"`
	Message     string           `json:"message"`
}

// LinkedInClient is the sourcing collaborator contract
type LinkedInClient interface {
	SearchTalent(ctx context.Context, params TalentSearchParams, account *LinkedInAccount) (*TalentSearchResult, error)
	GetUserProfile(ctx context.Context, account *LinkedInAccount, providerID string) (*ProfileResponse, error)
	GetUserPosts(ctx context.Context, account *LinkedInAccount, providerID string) (*ActivityResponse, error)
	GetUserComments(ctx context.Context, account *LinkedInAccount, providerID string) (*ActivityResponse, error)
	GetUserReactions(ctx context.Context, account *LinkedInAccount, providerID string) (*ActivityResponse, error)
	ClassifyError(err error) ErrorClassification
}
