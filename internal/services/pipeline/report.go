package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// Status returns a single run, or the 20 most recent when runID is empty
func (s *Service) Status(ctx context.Context, runID string) ([]*models.PipelineRun, error) {
	if runID != "" {
		run, err := s.store.GetRunStatus(ctx, runID)
		if err != nil {
			return nil, err
		}
		return []*models.PipelineRun{run}, nil
	}
	return s.store.ListRecentRuns(ctx, 20)
}

// Results returns the scored candidates for a run
func (s *Service) Results(ctx context.Context, runID string, limit int) (*models.CandidatePipelineResults, error) {
	return s.store.GetResults(ctx, runID, limit)
}

// Candidate returns the full candidate detail document
func (s *Service) Candidate(ctx context.Context, candidateID string) (*models.CandidateDetail, error) {
	return s.store.GetCandidateDetail(ctx, candidateID)
}

// GetDailyReport assembles the contract, workflow, verification, and quota
// views for a run and date. An empty runID resolves to the most recent run
// for the role key; an empty date defaults to today UTC.
func (s *Service) GetDailyReport(ctx context.Context, runID, roleKey, date string) (*models.DailyReport, error) {
	if runID == "" {
		resolved, err := s.store.FindLatestRunForRole(ctx, roleKey)
		if err != nil {
			return nil, err
		}
		if resolved == "" {
			return nil, fmt.Errorf("no recent run found for role %s", roleKey)
		}
		runID = resolved
	}
	if date == "" {
		date = common.TodayUTC()
	}

	run, err := s.store.GetRunStatus(ctx, runID)
	if err != nil {
		return nil, err
	}

	workflow, err := s.store.GetWorkflowStats(ctx, runID, date)
	if err != nil {
		return nil, err
	}
	verification, err := s.store.GetVerificationStats(ctx, runID, date)
	if err != nil {
		return nil, err
	}
	quota, err := s.store.GetQuotaStatus(ctx, runID, date, models.QuotaTargets{
		PromotedTarget:     s.config.DailyQuotas.PromotedTarget,
		ReviewedTarget:     s.config.DailyQuotas.ReviewedTarget,
		VerificationBudget: s.config.DailyQuotas.VerificationBudget,
	})
	if err != nil {
		return nil, err
	}

	contract := models.ContractStatus{
		RunID:            run.ID,
		RoleKey:          run.RoleKey,
		Status:           run.Status,
		TargetCandidates: run.TargetCandidates,
	}
	if run.Diagnostics != nil {
		contract.Sourced = run.Diagnostics.Counts.Sourced
		contract.Enriched = run.Diagnostics.Counts.Enriched
		contract.ShortlistEligible = run.Diagnostics.Counts.ShortlistEligible
	}

	return &models.DailyReport{
		Contract:     contract,
		Workflow:     *workflow,
		Verification: *verification,
		Quota:        *quota,
	}, nil
}
