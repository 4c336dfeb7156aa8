// Package scoring evaluates candidates against the fixed recruiting rubric.
// Scoring is pure: the same input always produces the same Score.
package scoring

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// aiEvidenceTerms trigger the 0.7 evidence floor when present in an evidence
// URL or title
var aiEvidenceTerms = []string{"codex", "claude code", "mcp", "agent", "agents", "automation"}

// Outreach angles by dominant signal
const (
	angleAINative  = "Lead with AI-native shipping evidence and ask about current build velocity."
	angleBuilder   = "Lead with recent shipped work and invite a builder-focused conversation."
	angleRoleFit   = "Lead with role fit and verify current hands-on project scope."
)

// Input is everything the scorer reads for one candidate
type Input struct {
	Signals    []models.Signal
	Identity   *models.Identity
	Evidence   []models.EvidenceLink
	OpenToWork bool
}

// Scorer computes the weighted rubric score
type Scorer struct {
	logger arbor.ILogger
}

// NewScorer creates a new scorer
func NewScorer(logger arbor.ILogger) *Scorer {
	return &Scorer{logger: logger}
}

// Score evaluates the rubric: each component is the max observed signal value
// clamped to [0,1] and rounded to 3 decimals before the weighted sum; the
// total is rounded again.
func (s *Scorer) Score(input *Input) *models.Score {
	breakdown := models.ScoreBreakdown{
		BuilderActivity:  common.Round3(common.Clamp01(maxSignal(input.Signals, models.SignalBuilderActivity))),
		AINativeEvidence: common.Round3(common.Clamp01(aiNativeComponent(input))),
		TechnicalDepth:   common.Round3(common.Clamp01(maxSignal(input.Signals, models.SignalTechnicalDepth))),
		RoleFit:          common.Round3(common.Clamp01(maxSignal(input.Signals, models.SignalRoleFit))),
	}
	if input.Identity != nil {
		breakdown.IdentityConfidence = common.Round3(common.Clamp01(input.Identity.Confidence))
	}

	total := common.Round3(
		models.WeightBuilderActivity*breakdown.BuilderActivity +
			models.WeightAINativeEvidence*breakdown.AINativeEvidence +
			models.WeightTechnicalDepth*breakdown.TechnicalDepth +
			models.WeightRoleFit*breakdown.RoleFit +
			models.WeightIdentityConfidence*breakdown.IdentityConfidence)

	score := &models.Score{
		Total:     total,
		Breakdown: breakdown,
	}

	if input.Identity != nil {
		score.ShortlistEligible = input.Identity.ShortlistEligible
	}

	if input.Identity == nil || !input.Identity.ShortlistEligible {
		score.Concerns = append(score.Concerns, models.ConcernIdentityUnconfirmed)
	}
	if breakdown.BuilderActivity < 0.3 {
		score.Concerns = append(score.Concerns, models.ConcernLowRecentBuilderActivity)
	}
	if breakdown.AINativeEvidence < 0.3 {
		score.Concerns = append(score.Concerns, models.ConcernLimitedAINativeEvidence)
	}
	if breakdown.RoleFit < 0.3 {
		score.Concerns = append(score.Concerns, models.ConcernWeakRoleFit)
	}
	if input.OpenToWork {
		score.Concerns = append(score.Concerns, models.ConcernOpenToWorkRecorded)
	}

	score.OutreachAngle = outreachAngle(breakdown)
	return score
}

// aiNativeComponent takes the max of the observed ai_native_evidence signals
// and the 0.7 floor applied when any evidence link mentions an AI tooling term
func aiNativeComponent(input *Input) float64 {
	component := maxSignal(input.Signals, models.SignalAINativeEvidence)
	for _, link := range input.Evidence {
		haystack := strings.ToLower(link.URL + " " + link.Title)
		for _, term := range aiEvidenceTerms {
			if strings.Contains(haystack, term) {
				if component < 0.7 {
					component = 0.7
				}
				return component
			}
		}
	}
	return component
}

func outreachAngle(breakdown models.ScoreBreakdown) string {
	switch {
	case breakdown.AINativeEvidence >= 0.6:
		return angleAINative
	case breakdown.BuilderActivity >= 0.6:
		return angleBuilder
	default:
		return angleRoleFit
	}
}

// maxSignal returns the highest numeric value recorded for the key, or 0
func maxSignal(signals []models.Signal, key models.SignalKey) float64 {
	max := 0.0
	for _, signal := range signals {
		if signal.Key != key || signal.NumericValue == nil {
			continue
		}
		if *signal.NumericValue > max {
			max = *signal.NumericValue
		}
	}
	return max
}
