package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

func seedRun(t *testing.T, store *Store, key string) string {
	t.Helper()
	begin, err := store.BeginRun(context.Background(), beginInput(key))
	require.NoError(t, err)
	return begin.RunID
}

func TestUpsertCandidate_DedupAcrossNaturalKeys(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		ProviderID:       "ACoAA123",
		PublicIdentifier: "alice-dev",
		ProfileURL:       "https://linkedin.com/in/alice",
		Name:             "Alice Example",
	})
	require.NoError(t, err)
	assert.Equal(t, "li:ACoAA123", first)

	// Same provider id
	again, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		ProviderID: "ACoAA123",
		Name:       "Alice Example",
	})
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// Same public identifier, no provider id
	byPublic, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		PublicIdentifier: "alice-dev",
	})
	require.NoError(t, err)
	assert.Equal(t, first, byPublic)

	// Same profile URL modulo case, query string, and trailing slash
	byURL, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		ProfileURL: "https://LinkedIn.com/in/Alice/?trk=search",
	})
	require.NoError(t, err)
	assert.Equal(t, first, byURL)
}

func TestUpsertCandidate_IDGeneration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	byPublic, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{PublicIdentifier: "bob-builds"})
	require.NoError(t, err)
	assert.Equal(t, "li_pub:bob-builds", byPublic)

	byURL, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{ProfileURL: "https://linkedin.com/in/carol"})
	require.NoError(t, err)
	assert.Contains(t, byURL, "li_url:")
	assert.Len(t, byURL, len("li_url:")+24)

	random, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{Name: "No Keys"})
	require.NoError(t, err)
	assert.Contains(t, random, "li_rand:")
}

func TestUpsertCandidate_UpdatesLastSeen(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		ProviderID: "seen-1",
		Headline:   "Engineer",
	})
	require.NoError(t, err)

	detail, err := store.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	firstSeen := detail.Candidate.FirstSeenAt

	time.Sleep(5 * time.Millisecond)
	_, err = store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{
		ProviderID: "seen-1",
		Headline:   "Staff Engineer",
	})
	require.NoError(t, err)

	detail, err = store.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, firstSeen, detail.Candidate.FirstSeenAt)
	assert.GreaterOrEqual(t, detail.Candidate.LastSeenAt, firstSeen)
	assert.Equal(t, "Staff Engineer", detail.Candidate.Headline)
}

func TestAddSourceRecord_IgnoresDuplicates(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "source:key")

	id, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{ProviderID: "src-1"})
	require.NoError(t, err)

	record := &models.SourceRecord{CandidateID: id, RunID: runID, Source: "linkedin_search", Rank: 1}
	require.NoError(t, store.AddSourceRecord(ctx, record))
	require.NoError(t, store.AddSourceRecord(ctx, record))
}

func TestSignalsScoreEvidenceIdentity(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	runID := seedRun(t, store, "artifacts:key")

	id, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{ProviderID: "full-1", Name: "Dana Dev"})
	require.NoError(t, err)

	signals := []models.Signal{
		models.NumericSignal(models.SignalBuilderActivity, 0.8, "linkedin_posts", ""),
		models.NumericSignal(models.SignalTechnicalDepth, 0.5, "linkedin_profile", ""),
		{Key: models.SignalBrowserVerificationNeeded, Source: "pipeline"},
	}
	require.NoError(t, store.AddSignals(ctx, id, runID, signals))

	identity := &models.Identity{
		Platform:          models.PlatformCrossPlatform,
		Handle:            "dana-dev",
		Confidence:        0.82,
		Band:              models.BandHigh,
		Reasons:           []string{"strong_context_employer_location_handle"},
		ShortlistEligible: true,
	}
	require.NoError(t, store.UpsertIdentity(ctx, id, identity))

	score := &models.Score{
		Total: 0.712,
		Breakdown: models.ScoreBreakdown{
			BuilderActivity:    0.8,
			AINativeEvidence:   0.7,
			TechnicalDepth:     0.5,
			RoleFit:            0.6,
			IdentityConfidence: 0.82,
		},
		ShortlistEligible: true,
		OutreachAngle:     "Lead with AI-native shipping evidence and ask about current build velocity.",
	}
	require.NoError(t, store.UpsertScore(ctx, id, runID, score))

	links := []models.EvidenceLink{
		{URL: "https://github.com/dana-dev", Title: "GitHub", Relevance: 0.9},
		{URL: "https://github.com/dana-dev", Title: "Duplicate", Relevance: 0.1},
		{URL: "https://dana.dev", Title: "Personal site", Relevance: 0.5},
	}
	require.NoError(t, store.AddEvidenceLinks(ctx, id, runID, links))

	detail, err := store.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Signals, 3)
	require.NotNil(t, detail.Score)
	assert.InDelta(t, 0.712, detail.Score.Total, 1e-9)
	assert.Len(t, detail.Evidence, 2, "duplicate URL should be ignored")
	require.Len(t, detail.Identities, 1)
	assert.Equal(t, models.BandHigh, detail.Identities[0].Band)
}

func TestUpsertIdentity_Overwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	id, err := store.UpsertCandidate(ctx, &interfaces.CandidateUpsert{ProviderID: "ident-1"})
	require.NoError(t, err)

	require.NoError(t, store.UpsertIdentity(ctx, id, &models.Identity{
		Platform: models.PlatformCrossPlatform, Confidence: 0.4, Band: models.BandLow,
	}))
	require.NoError(t, store.UpsertIdentity(ctx, id, &models.Identity{
		Platform: models.PlatformCrossPlatform, Confidence: 0.95, Band: models.BandConfirmed, ShortlistEligible: true,
	}))

	identity, err := store.GetIdentity(ctx, id, models.PlatformCrossPlatform)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, models.BandConfirmed, identity.Band)
	assert.True(t, identity.ShortlistEligible)
}
