package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/enricher"
	"github.com/ternarybob/venari/internal/services/identity"
	"github.com/ternarybob/venari/internal/services/scoring"
	"github.com/ternarybob/venari/internal/storage/sqlite"
)

// fakeLinkedIn serves canned candidates, profiles, and activity
type fakeLinkedIn struct {
	candidates  []interfaces.SourcedCandidate
	searchErr   error
	profileErr  map[string]error
	recentPosts int
}

func (f *fakeLinkedIn) SearchTalent(ctx context.Context, params interfaces.TalentSearchParams, account *interfaces.LinkedInAccount) (*interfaces.TalentSearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &interfaces.TalentSearchResult{Success: true, Candidates: f.candidates}, nil
}

func (f *fakeLinkedIn) GetUserProfile(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ProfileResponse, error) {
	if err := f.profileErr[providerID]; err != nil {
		return nil, err
	}
	return &interfaces.ProfileResponse{
		ProviderID:     providerID,
		Headline:       "Platform Engineer",
		Location:       "San Francisco",
		CurrentCompany: "OpenClaw",
		Skills:         []string{"go", "kubernetes", "sqlite", "grpc", "terraform", "linux"},
		IsOpenToWork:   providerID == "open-1",
	}, nil
}

func (f *fakeLinkedIn) activity() (*interfaces.ActivityResponse, error) {
	items := make([]interfaces.ActivityItem, f.recentPosts)
	now := time.Now().UTC().UnixMilli()
	for i := range items {
		items[i] = interfaces.ActivityItem{Timestamp: float64(now)}
	}
	return &interfaces.ActivityResponse{Items: items}, nil
}

func (f *fakeLinkedIn) GetUserPosts(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return f.activity()
}

func (f *fakeLinkedIn) GetUserComments(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return f.activity()
}

func (f *fakeLinkedIn) GetUserReactions(ctx context.Context, account *interfaces.LinkedInAccount, providerID string) (*interfaces.ActivityResponse, error) {
	return f.activity()
}

func (f *fakeLinkedIn) ClassifyError(err error) interfaces.ErrorClassification {
	if err == nil {
		return interfaces.ErrorClassification{Type: models.ErrorKindUnknown}
	}
	message := err.Error()
	if strings.Contains(message, "429") {
		return interfaces.ErrorClassification{Type: models.ErrorKindRateLimit, IsTransient: true, Message: message}
	}
	if strings.Contains(message, "403") {
		return interfaces.ErrorClassification{Type: models.ErrorKindAuth, Message: message}
	}
	return interfaces.ErrorClassification{Type: models.ErrorKindUnknown, Message: message}
}

// fakeAccounts resolves a healthy or broken account
type fakeAccounts struct {
	account *interfaces.LinkedInAccount
}

func (f *fakeAccounts) Resolve(ctx context.Context) (*interfaces.LinkedInAccount, error) {
	return f.account, nil
}

// emptySearch returns no web results so enrichment is neutral
type emptySearch struct{}

func (emptySearch) Execute(ctx context.Context, req interfaces.WebSearchRequest) (*interfaces.WebSearchResponse, error) {
	return &interfaces.WebSearchResponse{}, nil
}

type emptyFetch struct{}

func (emptyFetch) Execute(ctx context.Context, req interfaces.WebFetchRequest) (*interfaces.WebFetchResponse, error) {
	return &interfaces.WebFetchResponse{}, nil
}

func testConfig() *common.RecruitingConfig {
	config := common.DefaultConfig().Tools.Recruiting
	config.Enabled = true
	config.Promotion.AllowUnverifiedPromotion = true
	return &config
}

func newTestService(t *testing.T, linkedin interfaces.LinkedInClient, config *common.RecruitingConfig) (*Service, interfaces.PipelineStorage) {
	t.Helper()
	logger := arbor.NewLogger()

	store, err := sqlite.NewStore(logger, &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "pipeline_test.db"),
		CacheSizeMB:   16,
		BusyTimeoutMS: 1000,
		WALMode:       true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	enrichSvc := enricher.NewServiceWithoutCache(emptySearch{}, emptyFetch{}, logger)
	service := NewService(store, linkedin, &fakeAccounts{account: &interfaces.LinkedInAccount{
		AccountID:    "acct-1",
		Enabled:      true,
		APIKeySource: "env",
	}}, enrichSvc, identity.NewResolver(logger), scoring.NewScorer(logger), config, logger)

	return service, store
}

func sourcedFixture() []interfaces.SourcedCandidate {
	return []interfaces.SourcedCandidate{
		{
			ProviderID:       "cand-1",
			PublicIdentifier: "cand-one",
			ProfileURL:       "https://linkedin.com/in/cand-one",
			Name:             "Cand One",
			Headline:         "Engineer",
		},
		{
			ProviderID:       "open-1",
			PublicIdentifier: "open-one",
			ProfileURL:       "https://linkedin.com/in/open-one",
			Name:             "Open One",
			Headline:         "Builder",
		},
	}
}

func TestRun_CompletesAndPersists(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 6}
	service, store := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{
			RoleKey:          "founding-engineer",
			RoleTitle:        "Founding Engineer",
			Search:           models.SearchCriteria{Keywords: "golang"},
			TargetCandidates: 10,
		},
	})

	require.Equal(t, models.RunStatusCompleted, handle.Status)
	require.NotEmpty(t, handle.RunID)
	assert.False(t, handle.Resumed)

	run, err := store.GetRunStatus(ctx, handle.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.Diagnostics)
	assert.Equal(t, 2, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, 2, run.Diagnostics.Counts.Enriched)
	assert.Equal(t, 0, run.Diagnostics.Counts.EnrichFailed)
	assert.Equal(t, "acct-1", run.Diagnostics.Account.AccountID)

	results, err := store.GetResults(ctx, handle.RunID, 100)
	require.NoError(t, err)
	total := len(results.Shortlist) + len(results.ReviewQueue)
	assert.Equal(t, 2, total)

	// No external hints: identity resolves unconfirmed, so nothing shortlists
	assert.Empty(t, results.Shortlist)

	detail, err := store.GetCandidateDetail(ctx, "li:open-1")
	require.NoError(t, err)
	require.NotNil(t, detail.Score)
	assert.Contains(t, detail.Score.Concerns, models.ConcernOpenToWorkRecorded)
	assert.True(t, detail.Candidate.OpenToWork)

	// Evidence always includes the LinkedIn profile link at relevance 1
	require.NotEmpty(t, detail.Evidence)
	assert.Equal(t, "https://linkedin.com/in/open-one", detail.Evidence[0].URL)
	assert.Equal(t, 1.0, detail.Evidence[0].Relevance)

	// The pipeline seeds the review workflow
	require.NotNil(t, detail.Review)
	assert.Equal(t, models.ReviewStatusNew, detail.Review.Status)
}

func TestRun_IdempotentResume(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 1}
	service, _ := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	input := &models.RunInput{
		Role: models.RoleSpec{
			RoleKey:          "idem-role",
			RoleTitle:        "Idem Role",
			TargetCandidates: 5,
		},
		IdempotencyKey: "idem-role:2026-01-01",
	}

	first := service.Run(ctx, input)
	require.Equal(t, models.RunStatusCompleted, first.Status)

	second := service.Run(ctx, input)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, models.RunStatusCompleted, second.Status)
}

func TestRun_PreflightFailureFatal(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture()}
	service, store := newTestService(t, linkedin, testConfig())
	service.accounts = &fakeAccounts{account: &interfaces.LinkedInAccount{
		AccountID:          "acct-1",
		Enabled:            false,
		APIKeySource:       "none",
		MissingCredentials: []string{"api_key"},
	}}
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "pre-role", RoleTitle: "Pre Role", TargetCandidates: 5},
	})

	require.Equal(t, models.RunStatusFailed, handle.Status)

	run, err := store.GetRunStatus(ctx, handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	require.NotNil(t, run.Diagnostics)
	require.NotNil(t, run.Diagnostics.Failure)
	assert.Equal(t, StagePreflight, run.Diagnostics.Failure.Stage)
	assert.Equal(t, models.ErrorKindAuth, run.Diagnostics.Failure.ErrorType)
}

func TestRun_SearchFailureFatal(t *testing.T) {
	linkedin := &fakeLinkedIn{searchErr: errors.New("LinkedIn API error (403): forbidden")}
	service, store := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "search-role", RoleTitle: "Search Role", TargetCandidates: 5},
	})

	require.Equal(t, models.RunStatusFailed, handle.Status)

	run, err := store.GetRunStatus(ctx, handle.RunID)
	require.NoError(t, err)
	require.NotNil(t, run.Diagnostics.Failure)
	assert.Equal(t, StageSearch, run.Diagnostics.Failure.Stage)
}

func TestRun_CandidateFailureIsolated(t *testing.T) {
	linkedin := &fakeLinkedIn{
		candidates: sourcedFixture(),
		profileErr: map[string]error{"cand-1": errors.New("LinkedIn API error (403): no access")},
	}
	service, store := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "iso-role", RoleTitle: "Iso Role", TargetCandidates: 5},
	})

	require.Equal(t, models.RunStatusCompleted, handle.Status, "per-candidate failure must not abort the run")

	run, err := store.GetRunStatus(ctx, handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, 1, run.Diagnostics.Counts.Enriched)
	assert.Equal(t, 1, run.Diagnostics.Counts.EnrichFailed)
	require.NotEmpty(t, run.Diagnostics.StageErrors)
	assert.Equal(t, StageEnrichScore, run.Diagnostics.StageErrors[0].Stage)
}

func TestPromoteCandidate_Preconditions(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 1}
	config := testConfig()
	service, _ := newTestService(t, linkedin, config)
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "promo-role", RoleTitle: "Promo Role", TargetCandidates: 5},
	})
	require.Equal(t, models.RunStatusCompleted, handle.Status)

	// Too few proof links
	result, err := service.PromoteCandidate(ctx, &models.Promotion{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		ProofLinks:  []string{"https://github.com/cand-1"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "proof links")

	// Enough links succeeds
	result, err = service.PromoteCandidate(ctx, &models.Promotion{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		ProofLinks:  []string{"https://github.com/cand-1", "https://cand-1.dev"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	// Second promotion refused
	result, err = service.PromoteCandidate(ctx, &models.Promotion{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		ProofLinks:  []string{"https://github.com/cand-1", "https://cand-1.dev"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already promoted")
}

func TestPromoteCandidate_RequiresVerificationWhenConfigured(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 1}
	config := testConfig()
	config.Promotion.AllowUnverifiedPromotion = false
	service, _ := newTestService(t, linkedin, config)
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "gate-role", RoleTitle: "Gate Role", TargetCandidates: 5},
	})
	require.Equal(t, models.RunStatusCompleted, handle.Status)

	result, err := service.PromoteCandidate(ctx, &models.Promotion{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		ProofLinks:  []string{"https://github.com/cand-1", "https://cand-1.dev"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "verification")

	require.NoError(t, service.SubmitVerification(ctx, &models.Verification{
		CandidateID:     "li:cand-1",
		RunID:           handle.RunID,
		Method:          models.VerificationMethodBrowser,
		Outcome:         models.VerificationConfirmed,
		ConfidenceAfter: 0.95,
	}))

	result, err = service.PromoteCandidate(ctx, &models.Promotion{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		ProofLinks:  []string{"https://github.com/cand-1", "https://cand-1.dev"},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestSubmitVerification_OutcomeTransitions(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 1}
	service, store := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "ver-role", RoleTitle: "Ver Role", TargetCandidates: 5},
	})
	require.Equal(t, models.RunStatusCompleted, handle.Status)

	// Inconclusive leaves the review untouched
	require.NoError(t, service.UpdateReviewStatus(ctx, "li:cand-1", handle.RunID,
		models.ReviewStatusUnderVerification, ""))
	require.NoError(t, service.SubmitVerification(ctx, &models.Verification{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		Method:      models.VerificationMethodBrowser,
		Outcome:     models.VerificationInconclusive,
	}))
	review, err := store.GetReview(ctx, "li:cand-1", handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusUnderVerification, review.Status)

	// Confirmed promotes with the note prefix
	require.NoError(t, service.SubmitVerification(ctx, &models.Verification{
		CandidateID: "li:cand-1",
		RunID:       handle.RunID,
		Method:      models.VerificationMethodBrowser,
		Outcome:     models.VerificationConfirmed,
	}))
	review, err = store.GetReview(ctx, "li:cand-1", handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPromotedShortlist, review.Status)
	assert.Contains(t, review.Notes, "Verified via browser.")

	// Rejected rejects
	require.NoError(t, service.SubmitVerification(ctx, &models.Verification{
		CandidateID: "li:open-1",
		RunID:       handle.RunID,
		Method:      models.VerificationMethodBrowser,
		Outcome:     models.VerificationRejected,
	}))
	review, err = store.GetReview(ctx, "li:open-1", handle.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusRejected, review.Status)
	assert.Contains(t, review.Notes, "Verification rejected.")
}

func TestGetDailyReport(t *testing.T) {
	linkedin := &fakeLinkedIn{candidates: sourcedFixture(), recentPosts: 1}
	service, _ := newTestService(t, linkedin, testConfig())
	ctx := context.Background()

	handle := service.Run(ctx, &models.RunInput{
		Role: models.RoleSpec{RoleKey: "report-role", RoleTitle: "Report Role", TargetCandidates: 5},
	})
	require.Equal(t, models.RunStatusCompleted, handle.Status)

	// Resolve the run from the role key, date defaulting to today
	report, err := service.GetDailyReport(ctx, "", "report-role", "")
	require.NoError(t, err)
	assert.Equal(t, handle.RunID, report.Contract.RunID)
	assert.Equal(t, 2, report.Contract.Sourced)
	assert.Equal(t, 2, report.Workflow.NewReview)
	assert.Equal(t, 10, report.Quota.PromotedTarget)
}
