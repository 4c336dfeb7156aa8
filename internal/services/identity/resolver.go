// Package identity resolves a candidate's cross-platform identity from
// declared profile links and contextual hints. Resolution is rule-based and
// deterministic: it reads only the passed input, applies every rule, and
// keeps the highest score encountered.
package identity

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// Reason tags attached to resolution results
const (
	ReasonDirectProfileLink  = "direct_profile_link"
	ReasonReverseLinkViaSite = "reverse_link_via_site"
	ReasonStrongContext      = "strong_context_employer_location_handle"
	ReasonPartialContext     = "context_partial_match"
	ReasonUnconfirmed        = "unconfirmed_no_strong_match"
)

// Rule scores
const (
	scoreDirectLink     = 0.95
	scoreReverseLink    = 0.90
	scoreFullContext    = 0.82
	scorePartialContext = 0.70
)

// Resolver scores cross-platform identity confidence
type Resolver struct {
	logger arbor.ILogger
}

// NewResolver creates a new identity resolver
func NewResolver(logger arbor.ILogger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve applies all rules against the input and returns the cross-platform
// identity with the maximum score. Confidence is rounded to 3 decimals.
func (r *Resolver) Resolve(input *models.IdentityInput) *models.Identity {
	best := 0.0
	reason := ReasonUnconfirmed

	linkedinURL := normalizeURL(input.LinkedIn.URL)

	if linkedinURL != "" && r.hasDirectProfileLink(input, linkedinURL) {
		best = scoreDirectLink
		reason = ReasonDirectProfileLink
	}

	if linkedinURL != "" && r.hasReverseLinkViaSite(input) {
		if scoreReverseLink > best {
			best = scoreReverseLink
			reason = ReasonReverseLinkViaSite
		}
	}

	employerMatch := contextMatch(input.LinkedIn.Employer, githubField(input, func(p *models.PlatformProfileHint) string { return p.Employer }))
	locationMatch := contextMatch(input.LinkedIn.Location, githubField(input, func(p *models.PlatformProfileHint) string { return p.Location }))
	handleMatch := handlesMatch(input)

	if employerMatch && locationMatch && handleMatch {
		if scoreFullContext > best {
			best = scoreFullContext
			reason = ReasonStrongContext
		}
	} else if (employerMatch && locationMatch) || (employerMatch && handleMatch) {
		if scorePartialContext > best {
			best = scorePartialContext
			reason = ReasonPartialContext
		}
	}

	confidence := common.Round3(best)
	band := models.BandForConfidence(confidence)

	identity := &models.Identity{
		Platform:          models.PlatformCrossPlatform,
		Confidence:        confidence,
		Band:              band,
		Reasons:           []string{reason},
		ShortlistEligible: band == models.BandConfirmed || band == models.BandHigh,
	}

	if input.GitHub != nil && input.GitHub.Handle != "" {
		identity.Handle = input.GitHub.Handle
		identity.URL = input.GitHub.URL
	}

	return identity
}

// hasDirectProfileLink checks whether any external profile declares a
// LinkedIn URL that normalises to the candidate's own
func (r *Resolver) hasDirectProfileLink(input *models.IdentityInput, linkedinURL string) bool {
	declared := []string{}
	if input.GitHub != nil {
		declared = append(declared, input.GitHub.LinkedInURL)
	}
	if input.X != nil {
		declared = append(declared, input.X.LinkedInURL)
	}
	if input.PersonalSite != nil {
		declared = append(declared, input.PersonalSite.LinkedInURL)
	}
	for _, url := range declared {
		if url != "" && normalizeURL(url) == linkedinURL {
			return true
		}
	}
	return false
}

// hasReverseLinkViaSite checks whether the personal site's declared GitHub or
// X link matches the candidate's discovered profile on that platform
func (r *Resolver) hasReverseLinkViaSite(input *models.IdentityInput) bool {
	if input.PersonalSite == nil {
		return false
	}
	if input.GitHub != nil && input.GitHub.URL != "" && input.PersonalSite.GitHubURL != "" {
		if normalizeURL(input.PersonalSite.GitHubURL) == normalizeURL(input.GitHub.URL) {
			return true
		}
	}
	if input.X != nil && input.X.URL != "" && input.PersonalSite.XURL != "" {
		if normalizeURL(input.PersonalSite.XURL) == normalizeURL(input.X.URL) {
			return true
		}
	}
	return false
}

func githubField(input *models.IdentityInput, pick func(*models.PlatformProfileHint) string) string {
	if input.GitHub == nil {
		return ""
	}
	return pick(input.GitHub)
}

// handlesMatch reports whether the GitHub and X handles are the same
// (case-insensitive, trimmed)
func handlesMatch(input *models.IdentityInput) bool {
	if input.GitHub == nil || input.X == nil {
		return false
	}
	github := strings.ToLower(strings.TrimSpace(input.GitHub.Handle))
	x := strings.ToLower(strings.TrimSpace(input.X.Handle))
	return github != "" && github == x
}

// contextMatch compares two context fields case-insensitively after trimming
func contextMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

// normalizeURL trims, lowercases, and strips the trailing slash
func normalizeURL(url string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(url)), "/")
}
