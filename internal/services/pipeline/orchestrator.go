// Package pipeline implements the candidate pipeline run orchestrator: a
// deterministic, resumable, idempotent batch run that sources candidates,
// enriches them, resolves identity, scores them, and persists everything for
// the review workflow.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/enricher"
	"github.com/ternarybob/venari/internal/services/identity"
	"github.com/ternarybob/venari/internal/services/scoring"
)

// Pipeline stage labels used in failure records and diagnostics
const (
	StagePreflight      = "linkedin_preflight"
	StageSearch         = "linkedin_search"
	StageEnrichScore    = "candidate_enrich_score"
	StagePersist        = "candidate_persist"
)

// Sourcing page geometry
const (
	searchPageSize = 50
	minSearchPages = 3
)

// Activity window and normalisation for builder_activity
const (
	activityWindowDays   = 90
	activityNormaliser   = 12
	skillsNormaliser     = 12
	roleFitWithHeadline  = 0.6
	roleFitNoHeadline    = 0.3
)

// Service is the run orchestrator
type Service struct {
	store    interfaces.PipelineStorage
	linkedin interfaces.LinkedInClient
	accounts interfaces.AccountResolver
	enricher *enricher.Service
	resolver *identity.Resolver
	scorer   *scoring.Scorer
	config   *common.RecruitingConfig
	logger   arbor.ILogger
}

// NewService wires the orchestrator
func NewService(
	store interfaces.PipelineStorage,
	linkedin interfaces.LinkedInClient,
	accounts interfaces.AccountResolver,
	enrichSvc *enricher.Service,
	resolver *identity.Resolver,
	scorer *scoring.Scorer,
	config *common.RecruitingConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		store:    store,
		linkedin: linkedin,
		accounts: accounts,
		enricher: enrichSvc,
		resolver: resolver,
		scorer:   scorer,
		config:   config,
		logger:   logger,
	}
}

// Run executes the pipeline state machine. It never returns an error to the
// caller: fatal failures finalise the run as failed and come back in the
// handle's status.
func (s *Service) Run(ctx context.Context, input *models.RunInput) *models.RunHandle {
	target := clampTarget(input.Role.TargetCandidates, s.config.Run.TargetCandidatesPerRole)

	idempotencyKey := input.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("%s:%d:%s", input.Role.RoleKey, target, common.TodayUTC())
	}

	sourceMode := input.SourceQueryMode
	if sourceMode == "" {
		sourceMode = models.SourceQueryModeDefault
	}
	evidenceMode := input.EvidenceQueryMode
	if evidenceMode == "" {
		evidenceMode = models.EvidenceQueryModeDefault
	}
	modes := models.RunModes{SourceQueryMode: sourceMode, EvidenceQueryMode: evidenceMode}

	criteria := input.Role.Search
	if sourceMode == models.SourceQueryModeBroad {
		criteria = normalizeBroadSearch(criteria)
	}

	begin, err := s.store.BeginRun(ctx, &interfaces.BeginRunInput{
		IdempotencyKey:   idempotencyKey,
		RoleKey:          input.Role.RoleKey,
		RoleTitle:        input.Role.RoleTitle,
		TargetCandidates: target,
		Criteria:         criteria,
		Modes:            modes,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("role_key", input.Role.RoleKey).Msg("Failed to begin run")
		return &models.RunHandle{Status: models.RunStatusFailed}
	}
	if begin.Resumed {
		s.logger.Info().Str("run_id", begin.RunID).Msg("Existing run returned for idempotency key")
		return &models.RunHandle{RunID: begin.RunID, Resumed: true, Status: begin.Status}
	}

	runID := begin.RunID
	acc := NewRunAccumulator()

	diagnostics := &models.PipelineDiagnostics{
		Modes:          modes,
		EffectiveQuery: criteria.Keywords,
	}

	if err := s.execute(ctx, runID, input, criteria, target, evidenceMode, acc, diagnostics); err != nil {
		s.finalizeFailed(ctx, runID, err, acc, diagnostics)
		return &models.RunHandle{RunID: runID, Resumed: false, Status: models.RunStatusFailed}
	}

	diagnostics.Counts = acc.Counts()
	diagnostics.StageErrors = acc.StageErrors()
	if err := s.store.MarkRunCompleted(ctx, runID, diagnostics); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to finalise run")
	}
	s.recordDailyOutput(ctx, runID, input.Role.RoleKey, acc)

	return &models.RunHandle{RunID: runID, Resumed: false, Status: models.RunStatusCompleted}
}

// execute runs preflight, sourcing, and the per-candidate loop. A returned
// error is fatal for the run.
func (s *Service) execute(
	ctx context.Context,
	runID string,
	input *models.RunInput,
	criteria models.SearchCriteria,
	target int,
	evidenceMode models.EvidenceQueryMode,
	acc *RunAccumulator,
	diagnostics *models.PipelineDiagnostics,
) error {
	account, err := s.preflight(ctx)
	if account != nil {
		diagnostics.Account = models.AccountHealth{
			AccountID:          account.AccountID,
			UnipileAccountID:   account.UnipileAccountID,
			Enabled:            account.Enabled,
			APIKeySource:       account.APIKeySource,
			MissingCredentials: account.MissingCredentials,
		}
	}
	if err != nil {
		return err
	}

	candidates, err := s.source(ctx, criteria, target, account)
	if err != nil {
		return err
	}
	if len(candidates) > target {
		candidates = candidates[:target]
	}
	acc.Update(func(c *models.RunCounts) { c.Sourced = len(candidates) })

	s.logger.Info().
		Str("run_id", runID).
		Int("sourced", len(candidates)).
		Msg("Sourcing complete, enriching candidates")

	for rank, sourced := range candidates {
		if err := ctx.Err(); err != nil {
			return models.NewStageError(StageEnrichScore, models.ErrorKindUnknown, "run cancelled", false, err)
		}
		if err := s.processCandidate(ctx, runID, input, sourced, rank+1, evidenceMode, account, acc); err != nil {
			s.isolateCandidateFailure(ctx, runID, sourced, err, acc)
		}
	}

	return nil
}

// preflight resolves the LinkedIn account and verifies it is usable
func (s *Service) preflight(ctx context.Context) (*interfaces.LinkedInAccount, error) {
	account, err := s.accounts.Resolve(ctx)
	if err != nil {
		return nil, models.NewStageError(StagePreflight, models.ErrorKindAuth, err.Error(), false, err)
	}
	if !account.Enabled {
		return account, models.NewStageError(StagePreflight, models.ErrorKindAuth, "linkedin account disabled", false, nil)
	}
	if len(account.MissingCredentials) > 0 {
		return account, models.NewStageError(StagePreflight, models.ErrorKindAuth,
			fmt.Sprintf("missing credentials: %v", account.MissingCredentials), false, nil)
	}
	return account, nil
}

// source runs the talent search with retries
func (s *Service) source(ctx context.Context, criteria models.SearchCriteria, target int, account *interfaces.LinkedInAccount) ([]interfaces.SourcedCandidate, error) {
	maxPages := int(math.Ceil(float64(target) / float64(searchPageSize)))
	if maxPages < minSearchPages {
		maxPages = minSearchPages
	}

	params := interfaces.TalentSearchParams{
		Criteria: criteria,
		PageSize: searchPageSize,
		MaxPages: maxPages,
	}

	result, err := withRetry(ctx, s.isLinkedInRetryable, func(ctx context.Context) (*interfaces.TalentSearchResult, error) {
		return s.linkedin.SearchTalent(ctx, params, account)
	})
	if err != nil {
		classification := s.linkedin.ClassifyError(err)
		return nil, models.NewStageError(StageSearch, classification.Type, classification.Message, classification.IsTransient, err)
	}
	if !result.Success {
		searchErr := errors.New(result.Error)
		classification := s.linkedin.ClassifyError(searchErr)
		return nil, models.NewStageError(StageSearch, classification.Type, classification.Message, classification.IsTransient, searchErr)
	}

	return result.Candidates, nil
}

func (s *Service) isLinkedInRetryable(err error) bool {
	return s.linkedin.ClassifyError(err).IsTransient
}

// isolateCandidateFailure records a per-candidate exception without aborting
// the run
func (s *Service) isolateCandidateFailure(ctx context.Context, runID string, sourced interfaces.SourcedCandidate, err error, acc *RunAccumulator) {
	kind := models.ErrorKindUnknown
	retryable := false
	var stageErr *models.PipelineStageError
	if errors.As(err, &stageErr) {
		kind = stageErr.Type
		retryable = stageErr.Retryable
	} else if isExternalRetryable(err) {
		retryable = true
	}

	acc.Update(func(c *models.RunCounts) { c.EnrichFailed++ })
	acc.RecordStageError(StageEnrichScore, err.Error(), kind)

	ref := sourced.ProviderID
	if ref == "" {
		ref = sourced.PublicIdentifier
	}
	if storeErr := s.store.AddRunFailure(ctx, runID, &models.RunFailure{
		Stage:        StageEnrichScore,
		CandidateRef: ref,
		ErrorType:    kind,
		Message:      err.Error(),
		Retryable:    retryable,
	}); storeErr != nil {
		s.logger.Warn().Err(storeErr).Str("run_id", runID).Msg("Failed to persist run failure")
	}

	s.logger.Warn().
		Err(err).
		Str("run_id", runID).
		Str("candidate_ref", ref).
		Msg("Candidate enrichment failed, continuing run")
}

// finalizeFailed classifies the fatal error and marks the run failed
func (s *Service) finalizeFailed(ctx context.Context, runID string, err error, acc *RunAccumulator, diagnostics *models.PipelineDiagnostics) {
	stage := StageEnrichScore
	kind := models.ErrorKindUnknown
	retryable := false
	var stageErr *models.PipelineStageError
	if errors.As(err, &stageErr) {
		stage = stageErr.Stage
		kind = stageErr.Type
		retryable = stageErr.Retryable
	}

	diagnostics.Counts = acc.Counts()
	diagnostics.StageErrors = acc.StageErrors()
	diagnostics.Failure = &models.RunFailureInfo{
		Stage:     stage,
		ErrorType: kind,
		Message:   err.Error(),
		Retryable: retryable,
	}

	if storeErr := s.store.AddRunFailure(ctx, runID, &models.RunFailure{
		Stage:     stage,
		ErrorType: kind,
		Message:   err.Error(),
		Retryable: retryable,
	}); storeErr != nil {
		s.logger.Warn().Err(storeErr).Str("run_id", runID).Msg("Failed to persist run failure")
	}

	if storeErr := s.store.MarkRunFailed(ctx, runID, diagnostics); storeErr != nil {
		s.logger.Error().Err(storeErr).Str("run_id", runID).Msg("Failed to mark run failed")
	}

	s.logger.Error().Err(err).Str("run_id", runID).Str("stage", stage).Msg("Pipeline run failed")
}

// recordDailyOutput writes the per-day aggregate row for the run
func (s *Service) recordDailyOutput(ctx context.Context, runID, roleKey string, acc *RunAccumulator) {
	counts := acc.Counts()
	if err := s.store.UpsertDailyOutput(ctx, &models.DailyOutput{
		RunID:    runID,
		RoleKey:  roleKey,
		Date:     common.TodayUTC(),
		Sourced:  counts.Sourced,
		Enriched: counts.Enriched,
	}); err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to record daily output")
	}
}

func clampTarget(target, fallback int) int {
	if target <= 0 {
		return fallback
	}
	if target > 2000 {
		return 2000
	}
	return target
}

func marshalPayload(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
