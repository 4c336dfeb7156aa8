package unipile

import (
	"context"
	"os"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// AccountResolver resolves the configured LinkedIn account and reports which
// credentials are missing
type AccountResolver struct {
	config *common.UnipileConfig
}

// Compile-time assertion: AccountResolver implements the contract
var _ interfaces.AccountResolver = (*AccountResolver)(nil)

// NewAccountResolver creates a resolver over the provider configuration
func NewAccountResolver(config *common.UnipileConfig) *AccountResolver {
	return &AccountResolver{config: config}
}

// Resolve reports the account, its API key source, and any missing
// credentials. It never fails: health problems surface in the result.
func (r *AccountResolver) Resolve(ctx context.Context) (*interfaces.LinkedInAccount, error) {
	account := &interfaces.LinkedInAccount{
		AccountID:        r.config.AccountID,
		UnipileAccountID: r.config.AccountID,
		Enabled:          r.config.Enabled,
		APIKeySource:     "none",
	}

	if os.Getenv("VENARI_UNIPILE_API_KEY") != "" {
		account.APIKeySource = "env"
	} else if r.config.APIKey != "" {
		account.APIKeySource = "config"
	}

	if account.APIKeySource == "none" {
		account.MissingCredentials = append(account.MissingCredentials, "api_key")
	}
	if r.config.AccountID == "" {
		account.MissingCredentials = append(account.MissingCredentials, "account_id")
	}

	return account, nil
}
