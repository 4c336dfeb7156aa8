package pipeline

import (
	"context"
	"fmt"

	"github.com/ternarybob/venari/internal/models"
)

// Note prefixes applied when a verification outcome moves the review
const (
	verifiedNotePrefix = "Verified via browser."
	rejectedNotePrefix = "Verification rejected."
)

// UpdateReviewStatus upserts the (candidate, run) workflow state
func (s *Service) UpdateReviewStatus(ctx context.Context, candidateID, runID string, status models.ReviewStatus, notes string) error {
	switch status {
	case models.ReviewStatusNew, models.ReviewStatusUnderVerification,
		models.ReviewStatusPromotedShortlist, models.ReviewStatusRejected, models.ReviewStatusDeferred:
	default:
		return fmt.Errorf("invalid review status: %s", status)
	}
	return s.store.UpsertReviewStatus(ctx, candidateID, runID, status, notes)
}

// SubmitVerification records a verification and applies its outcome to the
// review: confirmed promotes, rejected rejects, inconclusive leaves the
// review untouched.
func (s *Service) SubmitVerification(ctx context.Context, verification *models.Verification) error {
	existing, err := s.store.GetIdentity(ctx, verification.CandidateID, models.PlatformCrossPlatform)
	if err != nil {
		return err
	}
	if existing != nil {
		verification.ConfidenceBefore = existing.Confidence
	}

	if err := s.store.InsertVerification(ctx, verification); err != nil {
		return err
	}

	switch verification.Outcome {
	case models.VerificationConfirmed:
		notes := prefixNotes(verifiedNotePrefix, verification.Notes)
		return s.store.UpsertReviewStatus(ctx, verification.CandidateID, verification.RunID,
			models.ReviewStatusPromotedShortlist, notes)
	case models.VerificationRejected:
		notes := prefixNotes(rejectedNotePrefix, verification.Notes)
		return s.store.UpsertReviewStatus(ctx, verification.CandidateID, verification.RunID,
			models.ReviewStatusRejected, notes)
	default:
		return nil
	}
}

// PromoteCandidate enforces the promotion preconditions and returns a result
// rather than an error for business rejections. The store's InsertPromotion
// transitions the review itself.
func (s *Service) PromoteCandidate(ctx context.Context, promotion *models.Promotion) (*models.PromotionResult, error) {
	if len(promotion.ProofLinks) < s.config.Promotion.MinProofLinks {
		return &models.PromotionResult{
			Success: false,
			Error:   fmt.Sprintf("promotion requires at least %d proof links", s.config.Promotion.MinProofLinks),
		}, nil
	}

	exists, err := s.store.HasPromotion(ctx, promotion.CandidateID, promotion.RunID)
	if err != nil {
		return nil, err
	}
	if exists {
		return &models.PromotionResult{
			Success: false,
			Error:   "candidate already promoted for this run",
		}, nil
	}

	if !s.config.Promotion.AllowUnverifiedPromotion {
		verified, err := s.store.HasConfirmedVerification(ctx, promotion.CandidateID, promotion.RunID)
		if err != nil {
			return nil, err
		}
		if !verified {
			return &models.PromotionResult{
				Success: false,
				Error:   "promotion requires a confirmed verification",
			}, nil
		}
	}

	if err := s.store.InsertPromotion(ctx, promotion); err != nil {
		return nil, err
	}
	return &models.PromotionResult{Success: true}, nil
}

// GetVerificationQueue returns under-verification candidates for the run
func (s *Service) GetVerificationQueue(ctx context.Context, runID, priority string, limit int) ([]*models.VerificationQueueItem, error) {
	return s.store.GetVerificationQueue(ctx, runID, priority, limit)
}

func prefixNotes(prefix, notes string) string {
	if notes == "" {
		return prefix
	}
	return prefix + " " + notes
}
