package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// ReviewStorage implements SQLite persistence for the human review workflow
type ReviewStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewReviewStorage creates a new review storage instance
func NewReviewStorage(db *SQLiteDB, logger arbor.ILogger) *ReviewStorage {
	return &ReviewStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertReviewStatus writes the workflow state for a (candidate, run)
func (s *ReviewStorage) UpsertReviewStatus(ctx context.Context, candidateID, runID string, status models.ReviewStatus, notes string) error {
	now := common.NowMillis()
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO candidate_reviews (candidate_id, run_id, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		candidateID, runID, string(status), nullable(notes), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review status: %w", err)
	}

	s.logger.Debug().
		Str("candidate_id", candidateID).
		Str("run_id", runID).
		Str("status", string(status)).
		Msg("Review status updated")
	return nil
}

// GetReview returns the review row, or nil when none exists
func (s *ReviewStorage) GetReview(ctx context.Context, candidateID, runID string) (*models.Review, error) {
	var review models.Review
	var status string
	var notes sql.NullString
	err := s.db.db.QueryRowContext(ctx, `
		SELECT status, priority, notes, created_at, updated_at FROM candidate_reviews
		WHERE candidate_id = ? AND run_id = ?`, candidateID, runID,
	).Scan(&status, &review.Priority, &notes, &review.CreatedAt, &review.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	review.CandidateID = candidateID
	review.RunID = runID
	review.Status = models.ReviewStatus(status)
	review.Notes = notes.String
	return &review, nil
}

// InsertVerification appends a verification record
func (s *ReviewStorage) InsertVerification(ctx context.Context, verification *models.Verification) error {
	proofLinks, err := json.Marshal(verification.ProofLinks)
	if err != nil {
		return fmt.Errorf("failed to serialize proof links: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO candidate_verifications (candidate_id, run_id, method, outcome,
			confidence_before, confidence_after, proof_links_json, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		verification.CandidateID, verification.RunID,
		string(verification.Method), string(verification.Outcome),
		verification.ConfidenceBefore, verification.ConfidenceAfter,
		string(proofLinks), nullable(verification.Notes), common.NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

// InsertPromotion writes the promotion and transitions the review to
// promoted_shortlist in the same transaction. The review transition lives
// here so the store is the single source of truth for it.
func (s *ReviewStorage) InsertPromotion(ctx context.Context, promotion *models.Promotion) error {
	proofLinks, err := json.Marshal(promotion.ProofLinks)
	if err != nil {
		return fmt.Errorf("failed to serialize proof links: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var override sql.NullFloat64
	if promotion.ConfidenceOverride != nil {
		override.Valid = true
		override.Float64 = *promotion.ConfidenceOverride
	}

	promotedAt := promotion.PromotedAt
	if promotedAt == 0 {
		promotedAt = common.NowMillis()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO candidate_promotions (candidate_id, run_id, promotion_reason, confidence_override,
			outreach_angle, proof_links_json, promoted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		promotion.CandidateID, promotion.RunID,
		nullable(promotion.PromotionReason), override, nullable(promotion.OutreachAngle),
		string(proofLinks), promotedAt,
	); err != nil {
		return fmt.Errorf("failed to insert promotion: %w", err)
	}

	now := common.NowMillis()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO candidate_reviews (candidate_id, run_id, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		promotion.CandidateID, promotion.RunID,
		string(models.ReviewStatusPromotedShortlist), nullable(promotion.PromotionReason), now, now,
	); err != nil {
		return fmt.Errorf("failed to promote review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit promotion: %w", err)
	}

	s.logger.Info().
		Str("candidate_id", promotion.CandidateID).
		Str("run_id", promotion.RunID).
		Msg("Candidate promoted to shortlist")
	return nil
}

// HasPromotion reports whether a promotion exists for the (candidate, run)
func (s *ReviewStorage) HasPromotion(ctx context.Context, candidateID, runID string) (bool, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM candidate_promotions WHERE candidate_id = ? AND run_id = ?`,
		candidateID, runID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check promotion: %w", err)
	}
	return count > 0, nil
}

// HasConfirmedVerification reports whether a confirmed verification exists
// for the (candidate, run)
func (s *ReviewStorage) HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM candidate_verifications
		WHERE candidate_id = ? AND run_id = ? AND outcome = ?`,
		candidateID, runID, string(models.VerificationConfirmed),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check verifications: %w", err)
	}
	return count > 0, nil
}

// GetVerificationQueue returns candidates in under_verification for the run,
// ordered by priority then score. priority == "high" additionally filters to
// review priority >= 50.
func (s *ReviewStorage) GetVerificationQueue(ctx context.Context, runID, priority string, limit int) ([]*models.VerificationQueueItem, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT r.candidate_id, r.priority, c.name, c.headline, c.profile_url,
			COALESCE(s.total, 0), COALESCE(i.confidence, 0), COALESCE(i.band, '')
		FROM candidate_reviews r
		JOIN candidates c ON c.id = r.candidate_id
		LEFT JOIN candidate_scores s ON s.candidate_id = r.candidate_id AND s.run_id = r.run_id
		LEFT JOIN candidate_identities i ON i.candidate_id = r.candidate_id AND i.platform = ?
		WHERE r.run_id = ? AND r.status = ?`
	args := []interface{}{string(models.PlatformCrossPlatform), runID, string(models.ReviewStatusUnderVerification)}

	if priority == "high" {
		query += ` AND r.priority >= 50`
	}
	query += ` ORDER BY r.priority DESC, COALESCE(s.total, 0) DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification queue: %w", err)
	}
	defer rows.Close()

	var items []*models.VerificationQueueItem
	for rows.Next() {
		item := &models.VerificationQueueItem{RunID: runID}
		var name, headline, profileURL sql.NullString
		if err := rows.Scan(&item.CandidateID, &item.Priority, &name, &headline, &profileURL,
			&item.TotalScore, &item.Confidence, &item.Band); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.Name = name.String
		item.Headline = headline.String
		item.ProfileURL = profileURL.String
		items = append(items, item)
	}
	return items, rows.Err()
}
