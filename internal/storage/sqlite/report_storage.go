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

// ReportStorage serves the read-side result and report queries
type ReportStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// NewReportStorage creates a new report storage instance
func NewReportStorage(db *SQLiteDB, logger arbor.ILogger) *ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// GetResults returns the top-N scored candidates for a run, partitioned into
// shortlist and review queue, each row carrying its top-3 evidence links.
func (s *ReportStorage) GetResults(ctx context.Context, runID string, limit int) (*models.CandidatePipelineResults, error) {
	if limit <= 0 {
		limit = 100
	}

	results := &models.CandidatePipelineResults{
		Shortlist:   []models.CandidateResult{},
		ReviewQueue: []models.CandidateResult{},
	}

	var status, roleKey, roleTitle string
	var configJSON, summaryJSON sql.NullString
	err := s.db.db.QueryRowContext(ctx, `
		SELECT status, role_key, role_title, config_json, summary_json
		FROM pipeline_runs WHERE id = ?`, runID,
	).Scan(&status, &roleKey, &roleTitle, &configJSON, &summaryJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	results.Meta = models.ResultsMeta{
		RunID:     runID,
		Status:    models.RunStatus(status),
		RoleKey:   roleKey,
		RoleTitle: roleTitle,
	}
	if configJSON.Valid && configJSON.String != "" {
		var envelope runCriteriaEnvelope
		if err := json.Unmarshal([]byte(configJSON.String), &envelope); err == nil {
			results.Meta.Modes = envelope.Modes
		}
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		var diagnostics models.PipelineDiagnostics
		if err := json.Unmarshal([]byte(summaryJSON.String), &diagnostics); err == nil {
			results.Meta.Diagnostics = &diagnostics
		}
	}

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT s.candidate_id, s.total, s.builder_activity, s.ai_native_evidence, s.technical_depth,
			s.role_fit, s.identity_confidence, s.concerns_json, s.shortlist_eligible, s.outreach_angle,
			c.name, c.headline, c.location, c.current_company, c.current_role, c.profile_url,
			i.platform, i.handle, i.url, i.confidence, i.band, i.reasons_json, i.shortlist_eligible
		FROM candidate_scores s
		JOIN candidates c ON c.id = s.candidate_id
		LEFT JOIN candidate_identities i ON i.candidate_id = s.candidate_id AND i.platform = ?
		WHERE s.run_id = ?
		ORDER BY s.total DESC
		LIMIT ?`,
		string(models.PlatformCrossPlatform), runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.CandidateResult
		var concerns, angle sql.NullString
		var eligible int
		var name, headline, location, company, role, profileURL sql.NullString
		var idPlatform, idHandle, idURL, idBand, idReasons sql.NullString
		var idConfidence sql.NullFloat64
		var idEligible sql.NullInt64

		if err := rows.Scan(&row.CandidateID, &row.TotalScore,
			&row.Breakdown.BuilderActivity, &row.Breakdown.AINativeEvidence,
			&row.Breakdown.TechnicalDepth, &row.Breakdown.RoleFit, &row.Breakdown.IdentityConfidence,
			&concerns, &eligible, &angle,
			&name, &headline, &location, &company, &role, &profileURL,
			&idPlatform, &idHandle, &idURL, &idConfidence, &idBand, &idReasons, &idEligible,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		row.ShortlistEligible = eligible == 1
		row.OutreachAngle = angle.String
		row.Name = name.String
		row.Headline = headline.String
		row.Location = location.String
		row.CurrentCompany = company.String
		row.CurrentRole = role.String
		row.ProfileURL = profileURL.String
		if concerns.Valid && concerns.String != "" {
			_ = json.Unmarshal([]byte(concerns.String), &row.Concerns)
		}

		if idPlatform.Valid {
			identity := models.Identity{
				Platform:          models.IdentityPlatform(idPlatform.String),
				Handle:            idHandle.String,
				URL:               idURL.String,
				Confidence:        idConfidence.Float64,
				Band:              models.IdentityBand(idBand.String),
				ShortlistEligible: idEligible.Int64 == 1,
			}
			if idReasons.Valid && idReasons.String != "" {
				_ = json.Unmarshal([]byte(idReasons.String), &identity.Reasons)
			}
			row.Identity = &identity
		}

		evidence, err := s.topEvidence(ctx, row.CandidateID, runID, 3)
		if err != nil {
			return nil, err
		}
		row.Evidence = evidence

		if row.ShortlistEligible {
			results.Shortlist = append(results.Shortlist, row)
		} else {
			results.ReviewQueue = append(results.ReviewQueue, row)
		}
	}
	return results, rows.Err()
}

// topEvidence returns a candidate's top evidence links for the run, ordered
// by (relevance DESC, created_at DESC). URL uniqueness is enforced by the
// table's unique index.
func (s *ReportStorage) topEvidence(ctx context.Context, candidateID, runID string, limit int) ([]models.EvidenceLink, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT url, title, source, relevance, created_at FROM candidate_evidence_links
		WHERE candidate_id = ? AND run_id = ?
		ORDER BY relevance DESC, created_at DESC
		LIMIT ?`, candidateID, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	var links []models.EvidenceLink
	for rows.Next() {
		var link models.EvidenceLink
		var title, source sql.NullString
		if err := rows.Scan(&link.URL, &title, &source, &link.Relevance, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence link: %w", err)
		}
		link.Title = title.String
		link.Source = source.String
		links = append(links, link)
	}
	return links, rows.Err()
}

// GetWorkflowStats counts reviews by state updated within the date's UTC day
func (s *ReportStorage) GetWorkflowStats(ctx context.Context, runID, date string) (*models.WorkflowStats, error) {
	start, end := common.DayWindowUTC(date)

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT status, COUNT(1) FROM candidate_reviews
		WHERE run_id = ? AND updated_at >= ? AND updated_at < ?
		GROUP BY status`, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow stats: %w", err)
	}
	defer rows.Close()

	stats := &models.WorkflowStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan workflow stats: %w", err)
		}
		switch models.ReviewStatus(status) {
		case models.ReviewStatusNew:
			stats.NewReview = count
		case models.ReviewStatusUnderVerification:
			stats.UnderVerification = count
		case models.ReviewStatusPromotedShortlist:
			stats.PromotedShortlist = count
		case models.ReviewStatusRejected:
			stats.Rejected = count
		case models.ReviewStatusDeferred:
			stats.Deferred = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

// GetVerificationStats counts verification outcomes within the date's UTC day
func (s *ReportStorage) GetVerificationStats(ctx context.Context, runID, date string) (*models.VerificationStats, error) {
	start, end := common.DayWindowUTC(date)

	rows, err := s.db.db.QueryContext(ctx, `
		SELECT outcome, COUNT(1) FROM candidate_verifications
		WHERE run_id = ? AND created_at >= ? AND created_at < ?
		GROUP BY outcome`, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification stats: %w", err)
	}
	defer rows.Close()

	stats := &models.VerificationStats{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan verification stats: %w", err)
		}
		switch models.VerificationOutcome(outcome) {
		case models.VerificationConfirmed:
			stats.Confirmed = count
		case models.VerificationRejected:
			stats.Rejected = count
		case models.VerificationInconclusive:
			stats.Inconclusive = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

// GetQuotaStatus compares the day's promotion, review, and verification
// activity to the configured quota targets
func (s *ReportStorage) GetQuotaStatus(ctx context.Context, runID, date string, quotas models.QuotaTargets) (*models.QuotaStatus, error) {
	start, end := common.DayWindowUTC(date)

	var promoted, reviewed, verifications int
	err := s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM candidate_promotions
		WHERE run_id = ? AND promoted_at >= ? AND promoted_at < ?`, runID, start, end,
	).Scan(&promoted)
	if err != nil {
		return nil, fmt.Errorf("failed to count promotions: %w", err)
	}

	err = s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM candidate_reviews
		WHERE run_id = ? AND updated_at >= ? AND updated_at < ?`, runID, start, end,
	).Scan(&reviewed)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	err = s.db.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM candidate_verifications
		WHERE run_id = ? AND created_at >= ? AND created_at < ?`, runID, start, end,
	).Scan(&verifications)
	if err != nil {
		return nil, fmt.Errorf("failed to count verifications: %w", err)
	}

	status := &models.QuotaStatus{
		Date:               date,
		Promoted:           promoted,
		PromotedTarget:     quotas.PromotedTarget,
		Reviewed:           reviewed,
		ReviewedTarget:     quotas.ReviewedTarget,
		Verifications:      verifications,
		VerificationBudget: quotas.VerificationBudget,
	}
	status.PromotedRemaining = remaining(quotas.PromotedTarget, promoted)
	status.ReviewedRemaining = remaining(quotas.ReviewedTarget, reviewed)
	status.VerificationsRemaining = remaining(quotas.VerificationBudget, verifications)
	return status, nil
}

func remaining(target, used int) int {
	if used >= target {
		return 0
	}
	return target - used
}

// FindLatestRunForRole scans the 20 most recent runs for one matching the
// role key. Returns an empty id when none match.
func (s *ReportStorage) FindLatestRunForRole(ctx context.Context, roleKey string) (string, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, role_key FROM pipeline_runs ORDER BY started_at DESC LIMIT 20`)
	if err != nil {
		return "", fmt.Errorf("failed to scan recent runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return "", fmt.Errorf("failed to scan run: %w", err)
		}
		if key == roleKey {
			return id, nil
		}
	}
	return "", rows.Err()
}

// UpsertDailyOutput writes the per-(run, role, date) aggregate counters
func (s *ReportStorage) UpsertDailyOutput(ctx context.Context, output *models.DailyOutput) error {
	now := common.NowMillis()
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO daily_run_outputs (run_id, role_key, date, sourced, enriched, promoted, reviewed, verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, role_key, date) DO UPDATE SET
			sourced = excluded.sourced,
			enriched = excluded.enriched,
			promoted = excluded.promoted,
			reviewed = excluded.reviewed,
			verified = excluded.verified,
			updated_at = excluded.updated_at`,
		output.RunID, output.RoleKey, output.Date,
		output.Sourced, output.Enriched, output.Promoted, output.Reviewed, output.Verified,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily output: %w", err)
	}
	return nil
}
