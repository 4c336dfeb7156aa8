package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

func TestGetResults_PartitionAndTopEvidence(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "results:key")

	eligible := seedCandidate(t, store, "res-eligible")
	require.NoError(t, store.UpsertIdentity(ctx, eligible, &models.Identity{
		Platform:          models.PlatformCrossPlatform,
		Confidence:        0.95,
		Band:              models.BandConfirmed,
		ShortlistEligible: true,
	}))
	require.NoError(t, store.UpsertScore(ctx, eligible, runID, &models.Score{
		Total:             0.84,
		ShortlistEligible: true,
	}))
	require.NoError(t, store.AddEvidenceLinks(ctx, eligible, runID, []models.EvidenceLink{
		{URL: "https://linkedin.com/in/res-eligible", Relevance: 1},
		{URL: "https://github.com/res-eligible", Relevance: 0.9},
		{URL: "https://res-eligible.dev", Relevance: 0.6},
		{URL: "https://res-eligible.dev/blog", Relevance: 0.3},
	}))

	review := seedCandidate(t, store, "res-review")
	require.NoError(t, store.UpsertScore(ctx, review, runID, &models.Score{Total: 0.41}))

	results, err := store.GetResults(ctx, runID, 100)
	require.NoError(t, err)
	require.Len(t, results.Shortlist, 1)
	require.Len(t, results.ReviewQueue, 1)

	row := results.Shortlist[0]
	assert.Equal(t, eligible, row.CandidateID)
	require.NotNil(t, row.Identity)
	assert.Equal(t, models.BandConfirmed, row.Identity.Band)

	require.Len(t, row.Evidence, 3, "only top 3 evidence links returned")
	assert.Equal(t, "https://linkedin.com/in/res-eligible", row.Evidence[0].URL)
	assert.Equal(t, "https://github.com/res-eligible", row.Evidence[1].URL)
	assert.Equal(t, "https://res-eligible.dev", row.Evidence[2].URL)
}

func TestGetResults_LimitRespected(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "limit:key")

	for i := 0; i < 5; i++ {
		candidateID := seedCandidate(t, store, string(rune('a'+i))+"-limit")
		require.NoError(t, store.UpsertScore(ctx, candidateID, runID, &models.Score{Total: float64(i) / 10}))
	}

	results, err := store.GetResults(ctx, runID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, len(results.Shortlist)+len(results.ReviewQueue))
}

func TestWorkflowVerificationQuotaStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "stats:key")
	date := common.TodayUTC()

	promoted := seedCandidate(t, store, "stat-promoted")
	require.NoError(t, store.UpsertReviewStatus(ctx, promoted, runID, models.ReviewStatusUnderVerification, ""))
	require.NoError(t, store.InsertVerification(ctx, &models.Verification{
		CandidateID: promoted,
		RunID:       runID,
		Method:      models.VerificationMethodBrowser,
		Outcome:     models.VerificationConfirmed,
	}))
	require.NoError(t, store.InsertPromotion(ctx, &models.Promotion{
		CandidateID: promoted,
		RunID:       runID,
		ProofLinks:  []string{"https://github.com/stat-promoted", "https://stat-promoted.dev"},
	}))

	deferred := seedCandidate(t, store, "stat-deferred")
	require.NoError(t, store.UpsertReviewStatus(ctx, deferred, runID, models.ReviewStatusDeferred, ""))

	workflow, err := store.GetWorkflowStats(ctx, runID, date)
	require.NoError(t, err)
	assert.Equal(t, 1, workflow.PromotedShortlist)
	assert.Equal(t, 1, workflow.Deferred)
	assert.Equal(t, 2, workflow.Total)

	verification, err := store.GetVerificationStats(ctx, runID, date)
	require.NoError(t, err)
	assert.Equal(t, 1, verification.Confirmed)
	assert.Equal(t, 1, verification.Total)

	quota, err := store.GetQuotaStatus(ctx, runID, date, models.QuotaTargets{
		PromotedTarget:     10,
		ReviewedTarget:     30,
		VerificationBudget: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, quota.Promoted)
	assert.Equal(t, 9, quota.PromotedRemaining)
	assert.Equal(t, 2, quota.Reviewed)
	assert.Equal(t, 1, quota.Verifications)
	assert.Equal(t, 19, quota.VerificationsRemaining)
}

func TestFindLatestRunForRole(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	runID := seedRun(t, store, "find:key")

	found, err := store.FindLatestRunForRole(ctx, "founding-engineer")
	require.NoError(t, err)
	assert.Equal(t, runID, found)

	missing, err := store.FindLatestRunForRole(ctx, "unknown-role")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestUpsertDailyOutput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "daily:key")

	output := &models.DailyOutput{
		RunID:    runID,
		RoleKey:  "founding-engineer",
		Date:     common.TodayUTC(),
		Sourced:  12,
		Enriched: 10,
	}
	require.NoError(t, store.UpsertDailyOutput(ctx, output))

	output.Enriched = 11
	require.NoError(t, store.UpsertDailyOutput(ctx, output))
}
