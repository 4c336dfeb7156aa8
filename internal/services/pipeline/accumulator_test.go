package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/venari/internal/models"
)

func TestAccumulator_Counts(t *testing.T) {
	acc := NewRunAccumulator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Update(func(c *models.RunCounts) { c.Enriched++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, acc.Counts().Enriched)
}

func TestAccumulator_TopThreeMessages(t *testing.T) {
	acc := NewRunAccumulator()

	for i := 0; i < 5; i++ {
		acc.RecordStageError("candidate_enrich_score", "LinkedIn API error (429)", models.ErrorKindRateLimit)
	}
	for i := 0; i < 3; i++ {
		acc.RecordStageError("candidate_enrich_score", "profile fetch timed out", models.ErrorKindTimeout)
	}
	acc.RecordStageError("candidate_enrich_score", "connection reset", models.ErrorKindNetwork)
	acc.RecordStageError("candidate_enrich_score", "unexpected payload", models.ErrorKindUnknown)
	acc.RecordStageError("linkedin_search", "search failed", models.ErrorKindAPI)

	aggregates := acc.StageErrors()
	require.Len(t, aggregates, 2)

	// Stages sorted alphabetically
	enrich := aggregates[0]
	assert.Equal(t, "candidate_enrich_score", enrich.Stage)
	assert.Equal(t, 10, enrich.Count)
	require.Len(t, enrich.TopMessages, 3, "only top-3 messages kept")
	assert.Equal(t, "LinkedIn API error (429)", enrich.TopMessages[0].Message)
	assert.Equal(t, 5, enrich.TopMessages[0].Count)
	assert.Equal(t, "profile fetch timed out", enrich.TopMessages[1].Message)

	assert.Equal(t, "linkedin_search", aggregates[1].Stage)
}

func TestAccumulator_DeterministicOrdering(t *testing.T) {
	build := func() []models.StageErrorAggregate {
		acc := NewRunAccumulator()
		for i := 0; i < 4; i++ {
			acc.RecordStageError("stage_b", fmt.Sprintf("error %d", i%2), models.ErrorKindAPI)
			acc.RecordStageError("stage_a", "same error", models.ErrorKindAPI)
		}
		return acc.StageErrors()
	}
	assert.Equal(t, build(), build())
}
