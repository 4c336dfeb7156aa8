package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/enricher"
	"github.com/ternarybob/venari/internal/services/scoring"
)

// activityBundle is the result of the four parallel collaborator calls
type activityBundle struct {
	profile   *interfaces.ProfileResponse
	posts     *interfaces.ActivityResponse
	comments  *interfaces.ActivityResponse
	reactions *interfaces.ActivityResponse
}

// processCandidate upserts a sourced candidate, enriches it, resolves
// identity, scores it, and persists everything. Signals are persisted only
// after all collaborator calls have returned so the candidate's write is
// atomic.
func (s *Service) processCandidate(
	ctx context.Context,
	runID string,
	input *models.RunInput,
	sourced interfaces.SourcedCandidate,
	sourceRank int,
	evidenceMode models.EvidenceQueryMode,
	account *interfaces.LinkedInAccount,
	acc *RunAccumulator,
) error {
	candidateID, err := s.store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		Provider:         models.ProviderLinkedIn,
		ProviderID:       sourced.ProviderID,
		PublicIdentifier: sourced.PublicIdentifier,
		ProfileURL:       sourced.ProfileURL,
		Name:             sourced.Name,
		Headline:         sourced.Headline,
		Location:         sourced.Location,
		CurrentCompany:   sourced.CurrentCompany,
		CurrentRole:      sourced.CurrentRole,
	})
	if err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}

	if err := s.store.AddSourceRecord(ctx, &models.SourceRecord{
		CandidateID: candidateID,
		RunID:       runID,
		Source:      StageSearch,
		Rank:        sourceRank,
		Payload:     marshalPayload(sourced),
	}); err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}

	bundle, err := s.fetchActivity(ctx, account, sourced.ProviderID)
	if err != nil {
		return err
	}

	signals := deriveActivitySignals(bundle)

	// Refresh candidate fields the profile fetch improved on
	openToWork := bundle.profile != nil && bundle.profile.IsOpenToWork
	if bundle.profile != nil {
		if _, err := s.store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
			Provider:         models.ProviderLinkedIn,
			ProviderID:       sourced.ProviderID,
			PublicIdentifier: sourced.PublicIdentifier,
			ProfileURL:       sourced.ProfileURL,
			Name:             sourced.Name,
			Headline:         bundle.profile.Headline,
			Location:         bundle.profile.Location,
			CurrentCompany:   bundle.profile.CurrentCompany,
			CurrentRole:      bundle.profile.CurrentRole,
			OpenToWork:       openToWork,
		}); err != nil {
			return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
		}
	}

	external, err := withRetry(ctx, isExternalRetryable, func(ctx context.Context) (*enricher.Result, error) {
		return s.enricher.EnrichExternalFootprint(ctx, &enricher.Request{
			Name:              sourced.Name,
			Company:           currentCompany(sourced, bundle.profile),
			Headline:          currentHeadline(sourced, bundle.profile),
			EvidenceQueryMode: evidenceMode,
		})
	})
	if err != nil {
		return err
	}
	signals = append(signals, external.Signals...)

	resolved := s.resolveIdentity(sourced, bundle.profile, external)

	if input.BrowserVerificationEnabled && s.browserVerificationWanted(resolved.Band) {
		signals = append(signals, models.NumericSignal(
			models.SignalBrowserVerificationNeeded, 1,
			"pipeline", "identity band requires browser confirmation"))
	}

	evidence := collectEvidence(sourced.ProfileURL, external.Evidence)

	score := s.scorer.Score(&scoring.Input{
		Signals:    signals,
		Identity:   resolved,
		Evidence:   evidence,
		OpenToWork: openToWork,
	})

	if err := s.persistCandidateRun(ctx, candidateID, runID, resolved, external, signals, score, evidence); err != nil {
		return err
	}

	acc.Update(func(c *models.RunCounts) {
		c.Enriched++
		if len(external.Evidence) > 0 {
			c.ExternalDiscovered++
		}
		if resolved.Band == models.BandConfirmed || resolved.Band == models.BandHigh {
			c.IdentityConfirmedHigh++
		} else {
			c.IdentityMediumLow++
		}
		if resolved.ShortlistEligible {
			c.ShortlistEligible++
		}
	})

	return nil
}

// fetchActivity issues the profile, posts, comments, and reactions calls in
// parallel, each with its own retry loop
func (s *Service) fetchActivity(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*activityBundle, error) {
	bundle := &activityBundle{}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		profile, err := withRetry(groupCtx, s.isLinkedInRetryable, func(ctx context.Context) (*interfaces.ProfileResponse, error) {
			return s.linkedin.GetUserProfile(ctx, account, providerID)
		})
		if err != nil {
			return s.classifyActivityError("profile", err)
		}
		bundle.profile = profile
		return nil
	})
	group.Go(func() error {
		posts, err := withRetry(groupCtx, s.isLinkedInRetryable, func(ctx context.Context) (*interfaces.ActivityResponse, error) {
			return s.linkedin.GetUserPosts(ctx, account, providerID)
		})
		if err != nil {
			return s.classifyActivityError("posts", err)
		}
		bundle.posts = posts
		return nil
	})
	group.Go(func() error {
		comments, err := withRetry(groupCtx, s.isLinkedInRetryable, func(ctx context.Context) (*interfaces.ActivityResponse, error) {
			return s.linkedin.GetUserComments(ctx, account, providerID)
		})
		if err != nil {
			return s.classifyActivityError("comments", err)
		}
		bundle.comments = comments
		return nil
	})
	group.Go(func() error {
		reactions, err := withRetry(groupCtx, s.isLinkedInRetryable, func(ctx context.Context) (*interfaces.ActivityResponse, error) {
			return s.linkedin.GetUserReactions(ctx, account, providerID)
		})
		if err != nil {
			return s.classifyActivityError("reactions", err)
		}
		bundle.reactions = reactions
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *Service) classifyActivityError(call string, err error) error {
	classification := s.linkedin.ClassifyError(err)
	return models.NewStageError(StageEnrichScore, classification.Type,
		fmt.Sprintf("%s fetch: %s", call, classification.Message), classification.IsTransient, err)
}

// deriveActivitySignals computes builder_activity per activity source,
// technical_depth from skills, and role_fit from headline presence
func deriveActivitySignals(bundle *activityBundle) []models.Signal {
	var signals []models.Signal

	activity := []struct {
		source   string
		response *interfaces.ActivityResponse
	}{
		{"linkedin_posts", bundle.posts},
		{"linkedin_comments", bundle.comments},
		{"linkedin_reactions", bundle.reactions},
	}
	for _, entry := range activity {
		if entry.response == nil {
			continue
		}
		recent := countRecent(entry.response.Items, activityWindowDays)
		value := common.Clamp01(float64(recent) / float64(activityNormaliser))
		signals = append(signals, models.NumericSignal(
			models.SignalBuilderActivity, value, entry.source,
			fmt.Sprintf("%d items in the last %d days", recent, activityWindowDays)))
	}

	skillCount := 0
	if bundle.profile != nil {
		skillCount = len(bundle.profile.Skills)
	}
	depth := common.Clamp01(float64(skillCount) / float64(skillsNormaliser))
	signals = append(signals, models.NumericSignal(
		models.SignalTechnicalDepth, depth, "linkedin_profile",
		fmt.Sprintf("%d listed skills", skillCount)))

	roleFit := roleFitNoHeadline
	if bundle.profile != nil && bundle.profile.Headline != "" {
		roleFit = roleFitWithHeadline
	}
	signals = append(signals, models.NumericSignal(
		models.SignalRoleFit, roleFit, "linkedin_profile", "headline presence heuristic"))

	return signals
}

// countRecent counts activity items whose timestamp falls inside the window
func countRecent(items []interfaces.ActivityItem, windowDays int) int {
	cutoff := time.Now().UTC().AddDate(0, 0, -windowDays).UnixMilli()
	recent := 0
	for _, item := range items {
		if millis, ok := models.ParseTimestampMillis(item.Timestamp); ok && millis >= cutoff {
			recent++
		}
	}
	return recent
}

// resolveIdentity builds the resolver input from the LinkedIn profile and the
// external hints, then applies the configured shortlist threshold on top of
// the band rule.
func (s *Service) resolveIdentity(sourced interfaces.SourcedCandidate, profile *interfaces.ProfileResponse, external *enricher.Result) *models.Identity {
	linkedin := models.PlatformProfileHint{
		URL:      sourced.ProfileURL,
		Employer: currentCompany(sourced, profile),
	}
	if profile != nil {
		linkedin.Location = profile.Location
	} else {
		linkedin.Location = sourced.Location
	}

	resolved := s.resolver.Resolve(&models.IdentityInput{
		LinkedIn:     linkedin,
		GitHub:       external.GitHub,
		X:            external.X,
		PersonalSite: external.PersonalSite,
	})

	// Threshold override: eligibility requires the band rule AND the
	// configured minimum confidence (inclusive boundary)
	resolved.ShortlistEligible = resolved.ShortlistEligible &&
		resolved.Confidence >= s.config.Identity.MinConfidenceForShortlist

	return resolved
}

// browserVerificationWanted applies the configured verification mode
func (s *Service) browserVerificationWanted(band models.IdentityBand) bool {
	switch s.config.BrowserVerification.Mode {
	case "always":
		return true
	default: // high_only
		return band == models.BandHigh
	}
}

// collectEvidence prepends the LinkedIn profile link and dedups by URL
func collectEvidence(profileURL string, external []models.EvidenceLink) []models.EvidenceLink {
	var evidence []models.EvidenceLink
	seen := make(map[string]bool)

	if profileURL != "" {
		evidence = append(evidence, models.EvidenceLink{
			URL:       profileURL,
			Title:     "LinkedIn profile",
			Source:    models.ProviderLinkedIn,
			Relevance: 1,
		})
		seen[profileURL] = true
	}
	for _, link := range external {
		if link.URL == "" || seen[link.URL] {
			continue
		}
		seen[link.URL] = true
		evidence = append(evidence, link)
	}
	return evidence
}

// persistCandidateRun writes identity rows, signals, score, evidence, and the
// initial review state
func (s *Service) persistCandidateRun(
	ctx context.Context,
	candidateID, runID string,
	resolved *models.Identity,
	external *enricher.Result,
	signals []models.Signal,
	score *models.Score,
	evidence []models.EvidenceLink,
) error {
	identities := []*models.Identity{resolved}
	if external.GitHub != nil {
		identities = append(identities, &models.Identity{
			Platform:          models.PlatformGitHub,
			Handle:            external.GitHub.Handle,
			URL:               external.GitHub.URL,
			Confidence:        resolved.Confidence,
			Band:              resolved.Band,
			Reasons:           resolved.Reasons,
			ShortlistEligible: resolved.ShortlistEligible,
		})
	}
	if external.X != nil {
		identities = append(identities, &models.Identity{
			Platform:          models.PlatformX,
			Handle:            external.X.Handle,
			URL:               external.X.URL,
			Confidence:        resolved.Confidence,
			Band:              resolved.Band,
			Reasons:           resolved.Reasons,
			ShortlistEligible: resolved.ShortlistEligible,
		})
	}

	for _, identity := range identities {
		if err := s.store.UpsertIdentity(ctx, candidateID, identity); err != nil {
			return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
		}
	}
	if err := s.store.AddSignals(ctx, candidateID, runID, signals); err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}
	if err := s.store.UpsertScore(ctx, candidateID, runID, score); err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}
	if err := s.store.AddEvidenceLinks(ctx, candidateID, runID, evidence); err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}

	// Seed the review workflow without clobbering an existing human update
	review, err := s.store.GetReview(ctx, candidateID, runID)
	if err != nil {
		return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
	}
	if review == nil {
		if err := s.store.UpsertReviewStatus(ctx, candidateID, runID, models.ReviewStatusNew, ""); err != nil {
			return models.NewStageError(StagePersist, models.ErrorKindAPI, err.Error(), false, err)
		}
	}

	return nil
}

func currentCompany(sourced interfaces.SourcedCandidate, profile *interfaces.ProfileResponse) string {
	if profile != nil && profile.CurrentCompany != "" {
		return profile.CurrentCompany
	}
	return sourced.CurrentCompany
}

func currentHeadline(sourced interfaces.SourcedCandidate, profile *interfaces.ProfileResponse) string {
	if profile != nil && profile.Headline != "" {
		return profile.Headline
	}
	return sourced.Headline
}
